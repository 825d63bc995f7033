package patterns

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrorType categorizes an extraction failure.
type ErrorType string

const (
	ErrorTypeUnterminatedBlock     ErrorType = "unterminated_block"      // closing ']' missing
	ErrorTypeStrayEscapeMarker     ErrorType = "stray_escape_marker"     // '%' outside a literal or nested in an escape
	ErrorTypeQuoteInsideEscape     ErrorType = "quote_inside_escape"     // '"' before an escape completed
	ErrorTypeMalformedEscapeDigits ErrorType = "malformed_escape_digits" // escape digits are not hexadecimal
	ErrorTypeUnterminatedLiteral   ErrorType = "unterminated_literal"    // input ended inside a literal or escape
	ErrorTypeInvalidPattern        ErrorType = "invalid_pattern"         // literal does not compile
)

// Position is a location in the scanned text.
type Position struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
	Column int // 1-based, in characters
}

// IsValid reports whether the position was set.
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// positionAt converts a byte offset in text into a Position.
func positionAt(text string, offset int) Position {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	prefix := text[:offset]
	lineStart := strings.LastIndexByte(prefix, '\n') + 1
	return Position{
		Offset: offset,
		Line:   strings.Count(prefix, "\n") + 1,
		Column: utf8.RuneCountInString(prefix[lineStart:]) + 1,
	}
}

// Error describes one extraction or validation failure.
type Error struct {
	Type     ErrorType // Category of failure
	Message  string    // Nature of the malformation
	Input    string    // Raw offending substring (or decoded literal for invalid_pattern)
	Position Position  // Where Input starts
	Cause    error     // Decoder or regex compiler diagnostic, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Type, e.Message))
	if e.Position.IsValid() {
		sb.WriteString(fmt.Sprintf(" at %s", e.Position))
	}
	if e.Input != "" {
		sb.WriteString(fmt.Sprintf(": %q", e.Input))
	}
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Cause))
	}
	return sb.String()
}

// Unwrap returns the underlying diagnostic.
func (e *Error) Unwrap() error {
	return e.Cause
}

// rebase moves a position computed relative to a block into the coordinates
// of the text that contains the block at base.
func (e *Error) rebase(text string, base int) {
	e.Position = positionAt(text, base+e.Position.Offset)
}

// ErrorList aggregates several failures of one extraction.
type ErrorList struct {
	Errors []*Error
}

// Add appends an error to the list.
func (el *ErrorList) Add(err *Error) {
	el.Errors = append(el.Errors, err)
}

// HasErrors returns true if the list contains any errors.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Count returns the number of errors in the list.
func (el *ErrorList) Count() int {
	return len(el.Errors)
}

// Error implements the error interface.
func (el *ErrorList) Error() string {
	switch len(el.Errors) {
	case 0:
		return ""
	case 1:
		return el.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d pattern errors:", len(el.Errors)))
	for i, err := range el.Errors {
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, err.Error()))
	}
	return sb.String()
}

// ToError returns nil for an empty list and the list itself otherwise.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}

// ByType returns all errors of the given type.
func (el *ErrorList) ByType(errType ErrorType) []*Error {
	var result []*Error
	for _, err := range el.Errors {
		if err.Type == errType {
			result = append(result, err)
		}
	}
	return result
}

// HasErrorType returns true if the list contains an error of the given type.
func (el *ErrorList) HasErrorType(errType ErrorType) bool {
	return len(el.ByType(errType)) > 0
}

// TypeOf returns the category of an extraction error. For an ErrorList the
// category of its first entry is returned.
func TypeOf(err error) (ErrorType, bool) {
	var list *ErrorList
	if errors.As(err, &list) && list.HasErrors() {
		return list.Errors[0].Type, true
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Type, true
	}
	return "", false
}

// Failures flattens err into the individual failures it carries.
func Failures(err error) []*Error {
	var list *ErrorList
	if errors.As(err, &list) {
		return list.Errors
	}
	var e *Error
	if errors.As(err, &e) {
		return []*Error{e}
	}
	return nil
}
