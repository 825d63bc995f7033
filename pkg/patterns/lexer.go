package patterns

import (
	"fmt"
	"net/url"
	"unicode/utf8"
)

// State is the lexer state between two characters.
type State int

const (
	// StateOutside is the initial state: not inside a quoted literal.
	StateOutside State = iota
	// StateInLiteral accumulates characters of a quoted literal.
	StateInLiteral
	// StateInEscape collects the two hex digits of a percent-escape.
	StateInEscape
)

func (s State) String() string {
	switch s {
	case StateOutside:
		return "Outside"
	case StateInLiteral:
		return "InLiteral"
	case StateInEscape:
		return "InEscape"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Action is the effect a transition has on the literal being built.
type Action int

const (
	ActionIgnore      Action = iota // separator outside a literal
	ActionOpen                      // start a new empty literal
	ActionAppend                    // append the character to the literal
	ActionClose                     // emit the literal
	ActionBeginEscape               // '%' seen, start collecting digits
	ActionDigit                     // first hex digit recorded
	ActionDecode                    // second hex digit recorded, decode and append
	ActionFail                      // malformed input, see Step.Fail
)

// Step is the result of one transition.
type Step struct {
	State    State
	Progress int // hex digits of the current escape seen so far
	Action   Action
	Fail     ErrorType // set when Action is ActionFail
	Reason   string    // set when Action is ActionFail
}

func fail(s State, progress int, typ ErrorType, reason string) Step {
	return Step{State: s, Progress: progress, Action: ActionFail, Fail: typ, Reason: reason}
}

// Transition computes the next state for character c. It has no side
// effects; the caller applies Action to its buffers.
func Transition(s State, progress int, c rune) Step {
	switch s {
	case StateOutside:
		switch c {
		case '"':
			return Step{State: StateInLiteral, Action: ActionOpen}
		case '%':
			return fail(s, progress, ErrorTypeStrayEscapeMarker, "percent outside literal")
		}
		return Step{State: StateOutside, Action: ActionIgnore}

	case StateInLiteral:
		switch c {
		case '"':
			return Step{State: StateOutside, Action: ActionClose}
		case '%':
			return Step{State: StateInEscape, Progress: 0, Action: ActionBeginEscape}
		}
		return Step{State: StateInLiteral, Action: ActionAppend}

	case StateInEscape:
		switch c {
		case '"':
			return fail(s, progress, ErrorTypeQuoteInsideEscape, "quote inside incomplete escape")
		case '%':
			return fail(s, progress, ErrorTypeStrayEscapeMarker, "nested percent escape")
		}
		if progress == 0 {
			return Step{State: StateInEscape, Progress: 1, Action: ActionDigit}
		}
		return Step{State: StateInLiteral, Progress: 0, Action: ActionDecode}
	}

	return fail(s, progress, ErrorTypeUnterminatedLiteral, fmt.Sprintf("invalid lexer state %s", s))
}

// Literal is one decoded pattern literal.
type Literal struct {
	// Value is the literal with percent-escapes resolved.
	Value string

	// Raw is the literal as written, including its quotes.
	Raw string

	// Position locates the opening quote.
	Position Position
}

// Lex extracts the quoted literals of a pattern block in source order.
// Either every literal is returned or none is.
func Lex(block string) ([]Literal, error) {
	var (
		state        = StateOutside
		progress     int
		buf          []byte
		literalStart int
		escapeStart  int
	)
	literals := make([]Literal, 0)

	for i, c := range block {
		step := Transition(state, progress, c)
		end := i + utf8.RuneLen(c)

		switch step.Action {
		case ActionFail:
			start := i
			switch state {
			case StateInLiteral:
				start = literalStart
			case StateInEscape:
				start = escapeStart
			}
			return nil, &Error{
				Type:     step.Fail,
				Message:  step.Reason,
				Input:    block[start:end],
				Position: positionAt(block, start),
			}

		case ActionOpen:
			buf = buf[:0]
			literalStart = i

		case ActionAppend:
			buf = utf8.AppendRune(buf, c)

		case ActionClose:
			literals = append(literals, Literal{
				Value:    literalValue(buf),
				Raw:      block[literalStart:end],
				Position: positionAt(block, literalStart),
			})

		case ActionBeginEscape:
			escapeStart = i

		case ActionDecode:
			decoded, err := decodeEscape(block[escapeStart:end])
			if err != nil {
				return nil, &Error{
					Type:     ErrorTypeMalformedEscapeDigits,
					Message:  "invalid escape digits",
					Input:    block[escapeStart:end],
					Position: positionAt(block, escapeStart),
					Cause:    err,
				}
			}
			buf = append(buf, decoded...)
		}

		state, progress = step.State, step.Progress
	}

	if state != StateOutside {
		return nil, &Error{
			Type:     ErrorTypeUnterminatedLiteral,
			Message:  "unterminated literal or escape",
			Input:    block[literalStart:],
			Position: positionAt(block, literalStart),
		}
	}

	return literals, nil
}

// literalValue converts a decoded literal to a string. Escapes that do not
// form a UTF-8 sequence become one U+FFFD per byte.
func literalValue(buf []byte) string {
	if utf8.Valid(buf) {
		return string(buf)
	}
	return string([]rune(string(buf)))
}

// decodeEscape resolves a single "%XY" sequence to its byte.
func decodeEscape(escape string) (string, error) {
	if len(escape) != 3 {
		return "", url.EscapeError(escape)
	}
	return url.PathUnescape(escape)
}
