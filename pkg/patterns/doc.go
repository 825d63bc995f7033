// Package patterns extracts and validates the filesystem-matching patterns
// declared in a gfimx policy file.
//
// A policy file declares its patterns in a clause of the form
//
//	patterns = [ "pattern1", "pat%2522tern2", "pattern3" ]
//
// Extraction runs in three strictly sequential stages:
//
//  1. Locate finds the clause and returns the text between its brackets.
//  2. Lex walks that text one character at a time, collecting every quoted
//     literal and resolving percent-escapes (%XY) inside the quotes.
//  3. Validator compiles each literal as a regular expression.
//
// The whole pipeline is a pure function of its input. There is no shared
// mutable state, so an Engine may be used from many goroutines at once.
//
// # Lexer States
//
// The lexer is an explicit three-state machine driven by Transition:
//
//	Outside    not inside a quoted literal; everything but '"' is a separator
//	InLiteral  accumulating characters of the current literal
//	InEscape   collecting the two hex digits following a '%'
//
// A '%' is only legal inside a literal, a quote may not interrupt an escape,
// and a decoded character is only appended once both hex digits were seen.
//
// # Errors
//
// Every failure is a *Error carrying an ErrorType, the offending input and
// its position in the policy text. Regex failures are aggregated into an
// *ErrorList unless the engine was built WithFailFast:
//
//	clause, err := patterns.NewEngine().Extract(raw)
//	if err != nil {
//	    if typ, ok := patterns.TypeOf(err); ok && typ == patterns.ErrorTypeInvalidPattern {
//	        // at least one literal is not a legal regular expression
//	    }
//	    return err
//	}
//	for _, p := range clause.Patterns {
//	    fmt.Println(p)
//	}
//
// A policy without a patterns clause is valid: Extract returns an empty
// pattern list and no error.
//
// # Known Limitations
//
// The locator does not parse the policy grammar. The block ends at the first
// ']' outside a quoted literal, so nested brackets outside quotes and
// commented-out clauses are not recognized as such.
package patterns
