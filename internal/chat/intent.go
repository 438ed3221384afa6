// Package chat answers free-text analytic questions without a language
// model. Messages are classified by keyword and routed to the analysis
// engine; the answer is formatted as readable text plus structured data.
package chat

import (
	"regexp"
	"strings"
)

// Intent is the analysis a message asks for.
type Intent string

const (
	IntentSimilarity   Intent = "similarity"
	IntentImpact       Intent = "impact"
	IntentDependency   Intent = "dependency"
	IntentNodeSearch   Intent = "node_search"
	IntentNodeCount    Intent = "node_count"
	IntentNodeDescribe Intent = "node_describe"
	IntentSystemStatus Intent = "system_status"
	IntentListSources  Intent = "list_sources"
	IntentHelp         Intent = "help"
)

// rule pairs an intent with the predicate that selects it.
type rule struct {
	intent Intent
	match  func(msg string) bool
}

var (
	similarityRe = regexp.MustCompile(`similar|alike|comparable`)
	impactRe     = regexp.MustCompile(`impact|affect|influence|consequence`)
	dependencyRe = regexp.MustCompile(`dependencies|dependent|depends on|connected to`)
	searchRe     = regexp.MustCompile(`search|find|list|show nodes`)
	sourceRe     = regexp.MustCompile(`source|truth`)
	helpRe       = regexp.MustCompile(`\bhelp\b|what can you do|\bcommands?\b`)
	countRe      = regexp.MustCompile(`how many.*node`)
	describeRe   = regexp.MustCompile(`description|describe`)
	statusRe     = regexp.MustCompile(`status|system`)
	listRe       = regexp.MustCompile(`\blist`)
)

// rules is evaluated top to bottom on the lowercased message; the first
// match wins. The general rules at the end only run when none of the
// analysis rules matched.
var rules = []rule{
	{IntentSimilarity, similarityRe.MatchString},
	{IntentImpact, impactRe.MatchString},
	{IntentDependency, dependencyRe.MatchString},
	{IntentNodeSearch, func(m string) bool { return searchRe.MatchString(m) && !sourceRe.MatchString(m) }},
	{IntentListSources, func(m string) bool { return searchRe.MatchString(m) && sourceRe.MatchString(m) }},
	{IntentHelp, helpRe.MatchString},
	{IntentNodeCount, countRe.MatchString},
	{IntentNodeDescribe, func(m string) bool { return describeRe.MatchString(m) && strings.Contains(m, "node") }},
	{IntentSystemStatus, statusRe.MatchString},
	{IntentListSources, func(m string) bool { return listRe.MatchString(m) && sourceRe.MatchString(m) }},
}

// Classify returns the intent of message. Messages matching no rule are help requests.
func Classify(message string) Intent {
	msg := strings.ToLower(message)
	for _, r := range rules {
		if r.match(msg) {
			return r.intent
		}
	}
	return IntentHelp
}
