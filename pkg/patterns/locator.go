package patterns

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// clauseOpen matches the opening of a patterns clause up to its '['.
var clauseOpen = regexp.MustCompile(`\bpatterns\s*=\s*\[`)

// maxInputSnippet bounds the raw text quoted in block errors.
const maxInputSnippet = 64

// Block is the text between the brackets of one patterns clause.
type Block struct {
	// Text is the bracketed content, without the brackets.
	Text string

	// Start is the byte offset of Text in the policy text.
	Start int

	// Clause is the position of the "patterns" token in the policy text.
	Clause Position
}

// Locate returns the first patterns clause of raw. It returns a nil block and
// a nil error when raw declares no patterns.
func Locate(raw string) (*Block, error) {
	blocks, err := locate(raw, 1)
	if err != nil || len(blocks) == 0 {
		return nil, err
	}
	return blocks[0], nil
}

// LocateAll returns every patterns clause of raw in source order.
func LocateAll(raw string) ([]*Block, error) {
	return locate(raw, -1)
}

func locate(raw string, limit int) ([]*Block, error) {
	var blocks []*Block

	pos := 0
	for limit < 0 || len(blocks) < limit {
		loc := clauseOpen.FindStringIndex(raw[pos:])
		if loc == nil {
			break
		}
		clauseStart, start := pos+loc[0], pos+loc[1]

		end, openQuote := closingBracket(raw, start)
		if end < 0 {
			msg := "unterminated pattern block"
			if openQuote >= 0 {
				p := positionAt(raw, openQuote)
				msg = fmt.Sprintf("%s (unbalanced quote at %d:%d)", msg, p.Line, p.Column)
			}
			return nil, &Error{
				Type:     ErrorTypeUnterminatedBlock,
				Message:  msg,
				Input:    snippet(raw[clauseStart:]),
				Position: positionAt(raw, clauseStart),
			}
		}

		blocks = append(blocks, &Block{
			Text:   raw[start:end],
			Start:  start,
			Clause: positionAt(raw, clauseStart),
		})
		pos = end + 1
	}

	return blocks, nil
}

// closingBracket returns the offset of the first ']' at or after start that
// is not inside a quoted literal, or -1. When no bracket is found and a quote
// is left open, openQuote is that quote's offset; otherwise it is -1.
func closingBracket(raw string, start int) (end, openQuote int) {
	openQuote = -1
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case '"':
			if openQuote < 0 {
				openQuote = i
			} else {
				openQuote = -1
			}
		case ']':
			if openQuote < 0 {
				return i, -1
			}
		}
	}
	return -1, openQuote
}

func snippet(s string) string {
	if len(s) <= maxInputSnippet {
		return s
	}
	n := maxInputSnippet
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
