package commitlog

import (
	"regexp"
	"strings"
)

// lineRe matches one log line: hash, author, date, message, optional refs,
// bracketed parents.
var lineRe = regexp.MustCompile(`^([0-9a-f]+) \(([^)]+)\) \(([^)]+)\) \(([^)]+)\)(?:\s+\(([^)]*)\))?\s+\[([^\]]*)\]$`)

// Parse converts log text into commit records, preserving input order.
//
// Blank lines are ignored. The first non-blank line that does not match the
// line format aborts parsing with an INVALID_FORMAT [*ParseError] naming that
// line; no partial result is returned.
func Parse(text string) ([]Commit, error) {
	lines, err := splitLines(text)
	if err != nil {
		return nil, err
	}

	commits := make([]Commit, 0, len(lines))
	for _, l := range lines {
		c, ok := ParseLine(l.text)
		if !ok {
			return nil, errInvalidLine(l.text, l.number)
		}
		commits = append(commits, c)
	}
	if len(commits) == 0 {
		return nil, errNoCommits()
	}
	return commits, nil
}

// ParseLenient parses like [Parse] but skips malformed lines, returning them
// as INVALID_FORMAT errors alongside the commits that did parse. It fails only
// for empty input or when no line parses.
func ParseLenient(text string) ([]Commit, []*ParseError, error) {
	lines, err := splitLines(text)
	if err != nil {
		return nil, nil, err
	}

	var (
		commits []Commit
		skipped []*ParseError
	)
	for _, l := range lines {
		c, ok := ParseLine(l.text)
		if !ok {
			skipped = append(skipped, errInvalidLine(l.text, l.number))
			continue
		}
		commits = append(commits, c)
	}
	if len(commits) == 0 {
		return nil, skipped, errNoCommits()
	}
	return commits, skipped, nil
}

// ParseLine parses a single log line. It reports false when the line does not
// match the format.
func ParseLine(line string) (Commit, bool) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return Commit{}, false
	}

	refs := splitNonEmpty(m[5], ", ")
	return Commit{
		Hash:    m[1],
		Author:  m[2],
		Date:    m[3],
		Message: m[4],
		Refs:    refs,
		Parents: strings.Fields(m[6]),
		IsStash: DetectStash(m[4], refs),
	}.Clone(), true
}

type numberedLine struct {
	text   string
	number int
}

// splitLines returns the non-blank lines of text with their 1-based line
// numbers. Trailing carriage returns are dropped so CRLF input parses.
func splitLines(text string) ([]numberedLine, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errEmptyInput()
	}

	raw := strings.Split(text, "\n")
	lines := make([]numberedLine, 0, len(raw))
	for i, l := range raw {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, numberedLine{text: l, number: i + 1})
	}
	return lines, nil
}

func splitNonEmpty(s, sep string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
