package chat

import (
	"regexp"
	"strconv"
	"strings"
)

// Params are the loosely structured values pulled out of a message.
type Params struct {
	NodeID        string  `json:"nodeId,omitempty"`
	Type          string  `json:"type,omitempty"`
	Class         string  `json:"class,omitempty"`
	FunctionName  string  `json:"functionName,omitempty"`
	Threshold     float64 `json:"threshold,omitempty"`
	RequestedType string  `json:"requestedType,omitempty"`
	SourceCode    string  `json:"sourceCode,omitempty"`
}

var (
	nodeIDRe    = regexp.MustCompile(`\b[A-Z]+@id@\d+\b`)
	typeRe      = regexp.MustCompile(`(?i)\btype:\s*([A-Za-z]+)`)
	classRe     = regexp.MustCompile(`(?i)\bclass:\s*([A-Za-z]+)`)
	functionRe  = regexp.MustCompile(`(?i)\bfunction:\s*([A-Za-z_][\w.]*)`)
	thresholdRe = regexp.MustCompile(`(?i)\bthreshold:\s*([01]?\.\d+|[01])\b`)
	sourceArgRe = regexp.MustCompile(`(?i)\bsource:\s*([A-Za-z][\w-]*)`)
	howManyRe   = regexp.MustCompile(`(?i)how many\s+([A-Za-z]+)\s+nodes?`)
	searchArgRe = regexp.MustCompile(`(?i)\b(?:search(?:\s+for)?|find|list|show nodes(?:\s+(?:named|matching|with))?)\s+(.+)$`)
)

var countFillers = map[string]bool{"total": true, "all": true, "the": true, "of": true}

var searchFillers = map[string]bool{
	"node": true, "nodes": true, "all": true, "the": true, "me": true, "for": true,
	"named": true, "matching": true, "with": true, "a": true, "an": true,
}

// Extract pulls every recognizable parameter out of message.
func Extract(message string) Params {
	var p Params

	p.NodeID = nodeIDRe.FindString(message)
	if p.NodeID == "" {
		p.NodeID = bareNumber(thresholdRe.ReplaceAllString(message, ""))
	}
	if m := typeRe.FindStringSubmatch(message); m != nil {
		p.Type = strings.ToUpper(m[1])
	}
	if m := classRe.FindStringSubmatch(message); m != nil {
		p.Class = strings.ToUpper(m[1])
	}
	if m := functionRe.FindStringSubmatch(message); m != nil {
		p.FunctionName = m[1]
	}
	if m := thresholdRe.FindStringSubmatch(message); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 && v <= 1 {
			p.Threshold = v
		}
	}
	if m := sourceArgRe.FindStringSubmatch(message); m != nil {
		p.SourceCode = m[1]
	}
	if m := howManyRe.FindStringSubmatch(message); m != nil && !countFillers[strings.ToLower(m[1])] {
		p.RequestedType = strings.ToUpper(m[1])
	}
	if p.RequestedType == "" {
		p.RequestedType = p.Type
	}
	return p
}

// searchTerm returns the free text following a search verb, ignoring
// filler words and any key: value arguments.
func searchTerm(message string) string {
	m := searchArgRe.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	for _, word := range strings.Fields(m[1]) {
		word = strings.Trim(word, "?.!,;\"'")
		if word == "" || strings.Contains(word, ":") || searchFillers[strings.ToLower(word)] {
			continue
		}
		return word
	}
	return ""
}

// bareNumber returns the first whitespace-delimited token made only of digits.
func bareNumber(message string) string {
	for _, tok := range strings.Fields(message) {
		tok = strings.Trim(tok, "?.!,;:#()\"'")
		if tok != "" && isDigits(tok) {
			return tok
		}
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
