package commitlog

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/gitmorph/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Commit
	}{
		{
			name: "root commit without refs",
			text: "a1 (Bob) (1 day ago) (init)  []",
			want: []Commit{{
				Hash: "a1", Author: "Bob", Date: "1 day ago", Message: "init",
				Refs: []string{}, Parents: []string{},
			}},
		},
		{
			name: "merge with refs",
			text: "f3a2b1c (Alice) (2 hours ago) (Merge branch 'feature')  (HEAD -> main, tag: v1.0) [a1b2c3d 9e8f7a2]",
			want: []Commit{{
				Hash: "f3a2b1c", Author: "Alice", Date: "2 hours ago", Message: "Merge branch 'feature'",
				Refs:    []string{"HEAD -> main", "tag: v1.0"},
				Parents: []string{"a1b2c3d", "9e8f7a2"},
			}},
		},
		{
			name: "empty refs group",
			text: "b2 (Bob) (now) (second) () [a1]",
			want: []Commit{{
				Hash: "b2", Author: "Bob", Date: "now", Message: "second",
				Refs: []string{}, Parents: []string{"a1"},
			}},
		},
		{
			name: "stash detected from message",
			text: "c3 (Eve) (now) (WIP on main: Stash me)  [b2]",
			want: []Commit{{
				Hash: "c3", Author: "Eve", Date: "now", Message: "WIP on main: Stash me",
				Refs: []string{}, Parents: []string{"b2"}, IsStash: true,
			}},
		},
		{
			name: "stash detected from ref",
			text: "c3 (Eve) (now) (WIP)  (refs/stash) [b2]",
			want: []Commit{{
				Hash: "c3", Author: "Eve", Date: "now", Message: "WIP",
				Refs: []string{"refs/stash"}, Parents: []string{"b2"}, IsStash: true,
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParsePreservesOrder(t *testing.T) {
	got, err := Parse(SampleLog)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	lines := strings.Split(SampleLog, "\n")
	if len(got) != len(lines) {
		t.Fatalf("got %d commits, want %d", len(got), len(lines))
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, got[i].Hash+" ") {
			t.Errorf("commit %d = %s, want line %q", i, got[i].Hash, line)
		}
	}
}

func TestParseCRLF(t *testing.T) {
	got, err := Parse("b2 (Bob) (now) (second)  [a1]\r\n\r\na1 (Bob) (1 day ago) (init)  []\r\n")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(got) != 2 || got[0].Hash != "b2" || got[1].Hash != "a1" {
		t.Errorf("Parse() = %+v, want b2, a1", got)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		code     errors.Code
		wantLine string
	}{
		{name: "empty", text: "", code: errors.ErrCodeEmptyInput},
		{name: "whitespace", text: "   \n\t ", code: errors.ErrCodeEmptyInput},
		{
			name:     "missing parents bracket",
			text:     "a1 (Bob) (now) (init)",
			code:     errors.ErrCodeInvalidFormat,
			wantLine: "a1 (Bob) (now) (init)",
		},
		{
			name:     "uppercase hash",
			text:     "a1 (Bob) (now) (init)  []\nZZ (Bob) (now) (x)  [a1]",
			code:     errors.ErrCodeInvalidFormat,
			wantLine: "ZZ (Bob) (now) (x)  [a1]",
		},
		{
			name:     "one bad line among good ones",
			text:     "b2 (Bob) (now) (second)  [a1]\nnot a commit\na1 (Bob) (1 day ago) (init)  []",
			code:     errors.ErrCodeInvalidFormat,
			wantLine: "not a commit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			if err == nil {
				t.Fatalf("Parse() = %v, want error", got)
			}
			if got != nil {
				t.Errorf("Parse() returned partial result %v", got)
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), tt.code)
			}
			if !errors.IsFormatError(err) {
				t.Error("IsFormatError() = false, want true")
			}
			if tt.wantLine != "" && !strings.Contains(err.Error(), tt.wantLine) {
				t.Errorf("error %q does not name line %q", err.Error(), tt.wantLine)
			}
		})
	}
}

func TestParseErrorLineNumber(t *testing.T) {
	_, err := Parse("a1 (Bob) (now) (init)  []\n\nbroken")
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
	if pe.LineNumber != 3 {
		t.Errorf("LineNumber = %d, want 3", pe.LineNumber)
	}
	if pe.Line != "broken" {
		t.Errorf("Line = %q, want %q", pe.Line, "broken")
	}
}

func TestParseLenient(t *testing.T) {
	commits, skipped, err := ParseLenient("b2 (Bob) (now) (second)  [a1]\ngarbage\na1 (Bob) (1 day ago) (init)  []")
	if err != nil {
		t.Fatalf("ParseLenient() error: %v", err)
	}
	if len(commits) != 2 {
		t.Errorf("got %d commits, want 2", len(commits))
	}
	if len(skipped) != 1 || skipped[0].Line != "garbage" {
		t.Errorf("skipped = %v, want [garbage]", skipped)
	}

	_, _, err = ParseLenient("garbage\nmore garbage")
	if !errors.Is(err, errors.ErrCodeNoCommits) {
		t.Errorf("all-bad input error = %v, want NO_COMMITS", err)
	}
	if err.Error() != "no valid commits" {
		t.Errorf("Error() = %q, want %q", err.Error(), "no valid commits")
	}
}

func TestFormatRoundTrip(t *testing.T) {
	commits, err := Parse(SampleLog)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got := FormatAll(commits); got != SampleLog {
		t.Errorf("FormatAll() =\n%s\nwant\n%s", got, SampleLog)
	}
}

func TestDetectStash(t *testing.T) {
	tests := []struct {
		message string
		refs    []string
		want    bool
	}{
		{"normal", nil, false},
		{"STASH", nil, true},
		{"normal", []string{"main", "Stash@{0}"}, true},
		{"normal", []string{"main"}, false},
	}
	for _, tt := range tests {
		if got := DetectStash(tt.message, tt.refs); got != tt.want {
			t.Errorf("DetectStash(%q, %v) = %v, want %v", tt.message, tt.refs, got, tt.want)
		}
	}
}
