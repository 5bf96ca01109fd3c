// Package commitlog parses the one-line-per-commit log format consumed by
// gitmorph.
//
// # Format
//
// Each non-blank line describes one commit:
//
//	<hash> (<author>) (<relative-date>) (<message>) [(<ref1>, <ref2>)] [<parent1> <parent2>]
//
// which is what git prints for [PrettyFormat]:
//
//	git log --all -n 30 --pretty=format:"%h (%an) (%ar) (%s) %d [%p]"
//
// The hash is lowercase hex. The refs group is optional and comma+space
// separated. The bracketed parent list is mandatory and may be empty for a
// root commit.
//
// # Strictness
//
// [Parse] rejects the whole document on the first malformed line and never
// returns a partial commit list. [ParseLenient] skips malformed lines and
// reports them, failing only when nothing parses at all. Both return
// [*ParseError] values that carry an [errors.Code] so callers can branch on
// EMPTY_INPUT, INVALID_FORMAT and NO_COMMITS.
//
// [errors.Code]: github.com/matzehuels/gitmorph/pkg/errors.Code
package commitlog
