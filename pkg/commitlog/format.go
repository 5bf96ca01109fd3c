package commitlog

import (
	"strings"
)

// PrettyFormat is the git --pretty format string whose output [Parse] accepts.
const PrettyFormat = "%h (%an) (%ar) (%s) %d [%p]"

// SampleLog is a small history with one branch and one merge, used by the
// CLI demo mode and in tests.
const SampleLog = `f3a2b1c (Alice) (2 hours ago) (Merge branch 'feature' into 'main')  (HEAD -> main) [a1b2c3d 9e8f7a2]
a1b2c3d (Alice) (3 hours ago) (Add final documentation)  [7c9d4e5]
9e8f7a2 (Bob) (4 hours ago) (Implement feature X)  (feature) [6f5a3b1]
7c9d4e5 (Alice) (1 day ago) (Update README)  [2d8e9f0]
6f5a3b1 (Bob) (2 days ago) (Add initial feature code)  [2d8e9f0]
2d8e9f0 (Alice) (3 days ago) (Initial commit)  []`

// Format renders c as a single log line in the same layout git produces for
// [PrettyFormat], so Parse(Format(c)) yields c again.
func Format(c Commit) string {
	var b strings.Builder
	b.WriteString(c.Hash)
	b.WriteString(" (")
	b.WriteString(c.Author)
	b.WriteString(") (")
	b.WriteString(c.Date)
	b.WriteString(") (")
	b.WriteString(c.Message)
	b.WriteString(") ")
	if len(c.Refs) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(c.Refs, ", "))
		b.WriteString(")")
	}
	b.WriteString(" [")
	b.WriteString(strings.Join(c.Parents, " "))
	b.WriteString("]")
	return b.String()
}

// FormatAll renders commits one per line.
func FormatAll(commits []Commit) string {
	lines := make([]string, len(commits))
	for i, c := range commits {
		lines[i] = Format(c)
	}
	return strings.Join(lines, "\n")
}
