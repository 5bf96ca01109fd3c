package commitlog

import (
	"slices"
	"strings"
)

// Commit is one parsed log record. It is immutable once parsed; use
// [Commit.Clone] before handing a copy to code that may modify slices.
type Commit struct {
	Hash    string   `json:"hash"`
	Author  string   `json:"author"`
	Date    string   `json:"date"` // relative, display only
	Message string   `json:"message"`
	Refs    []string `json:"refs"`
	Parents []string `json:"parents"`
	IsStash bool     `json:"is_stash,omitempty"`
}

// IsRoot reports whether the commit lists no parents.
func (c Commit) IsRoot() bool { return len(c.Parents) == 0 }

// IsMerge reports whether the commit lists two or more parents.
func (c Commit) IsMerge() bool { return len(c.Parents) > 1 }

// Clone returns a deep copy of c.
func (c Commit) Clone() Commit {
	c.Refs = slices.Clone(c.Refs)
	c.Parents = slices.Clone(c.Parents)
	if c.Refs == nil {
		c.Refs = []string{}
	}
	if c.Parents == nil {
		c.Parents = []string{}
	}
	return c
}

// DetectStash reports whether message or any ref mentions "stash",
// ignoring case.
func DetectStash(message string, refs []string) bool {
	if containsFold(message, "stash") {
		return true
	}
	return slices.ContainsFunc(refs, func(r string) bool { return containsFold(r, "stash") })
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}
