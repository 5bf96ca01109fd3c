package commitlog

import (
	"fmt"

	"github.com/matzehuels/gitmorph/pkg/errors"
)

// ParseError is returned for every log format failure.
//
// Code is one of errors.ErrCodeEmptyInput, errors.ErrCodeInvalidFormat or
// errors.ErrCodeNoCommits. For INVALID_FORMAT, Line holds the offending line
// verbatim and LineNumber its 1-based position in the input.
type ParseError struct {
	Code       errors.Code
	Line       string
	LineNumber int
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch e.Code {
	case errors.ErrCodeEmptyInput:
		return "empty input"
	case errors.ErrCodeNoCommits:
		return "no valid commits"
	default:
		return fmt.Sprintf("invalid format at line: %s", e.Line)
	}
}

// ErrorCode exposes the code to errors.Is and errors.GetCode.
func (e *ParseError) ErrorCode() errors.Code { return e.Code }

func errEmptyInput() *ParseError { return &ParseError{Code: errors.ErrCodeEmptyInput} }

func errNoCommits() *ParseError { return &ParseError{Code: errors.ErrCodeNoCommits} }

func errInvalidLine(line string, n int) *ParseError {
	return &ParseError{Code: errors.ErrCodeInvalidFormat, Line: line, LineNumber: n}
}
