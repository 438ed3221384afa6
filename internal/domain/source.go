package domain

import "strings"

// Source is an upstream system of record.
type Source struct {
	Code        string `json:"code" yaml:"code"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// UnknownSource is reported for threads without a usable qualified name.
const UnknownSource = "UNKNOWN"

// SourceCodeOf returns the prefix of tqName before the first '_' or '.'.
func SourceCodeOf(tqName string) string {
	if tqName == "" {
		return UnknownSource
	}
	if i := strings.IndexAny(tqName, "_."); i >= 0 {
		if i == 0 {
			return UnknownSource
		}
		return tqName[:i]
	}
	return tqName
}

// DefaultSources lists the systems known out of the box.
func DefaultSources() []Source {
	return []Source{
		{Code: "SCR", Name: "SCR", Description: "Source code repository threads"},
		{Code: "Capital", Name: "Capital", Description: "Capital electrical design data"},
		{Code: "Teamcenter", Name: "Teamcenter", Description: "Teamcenter PLM records"},
	}
}
