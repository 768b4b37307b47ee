package jack

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/n2t-go/toolchain/pkg/source"
)

// Tokenizer recovers a flat token stream from Jack source text. Unlike the assembler and
// VM parsers it does not classify whole lines: a single line can hold many tokens, and a
// token never spans more than one line (Jack has no multi-line string or numeric literal).
type Tokenizer struct{ reader io.Reader }

// NewTokenizer returns a Tokenizer reading Jack source from r.
func NewTokenizer(r io.Reader) Tokenizer {
	return Tokenizer{reader: r}
}

// Tokenize strips comments and blank lines via pkg/source, then lexes every surviving
// line into zero or more tokens.
func (t *Tokenizer) Tokenize() ([]Token, error) {
	lines, err := source.ReadJack(t.reader)
	if err != nil {
		return nil, err
	}

	var tokens []Token
	for _, line := range lines {
		lineTokens, err := tokenizeLine(line.Text)
		if err != nil {
			return nil, fmt.Errorf("jack: line %d: %w", line.Ordinal+1, err)
		}
		for i := range lineTokens {
			lineTokens[i].Line = line.Ordinal + 1
		}
		tokens = append(tokens, lineTokens...)
	}
	return tokens, nil
}

func tokenizeLine(text string) ([]Token, error) {
	runes := []rune(text)
	var tokens []Token

	for pos := 0; pos < len(runes); {
		r := runes[pos]

		switch {
		case unicode.IsSpace(r):
			pos++

		case symbols[r]:
			tokens = append(tokens, Token{Type: TokenSymbol, Value: string(r)})
			pos++

		case r == '"':
			end := pos + 1
			for end < len(runes) && runes[end] != '"' {
				end++
			}
			if end >= len(runes) {
				return nil, fmt.Errorf("unterminated string constant starting at column %d", pos+1)
			}
			tokens = append(tokens, Token{Type: TokenStringConst, Value: string(runes[pos+1 : end])})
			pos = end + 1

		case unicode.IsDigit(r):
			end := pos
			for end < len(runes) && unicode.IsDigit(runes[end]) {
				end++
			}
			tokens = append(tokens, Token{Type: TokenIntConst, Value: string(runes[pos:end])})
			pos = end

		case isIdentStart(r):
			end := pos
			for end < len(runes) && isIdentPart(runes[end]) {
				end++
			}
			word := string(runes[pos:end])
			if keywords[word] {
				tokens = append(tokens, Token{Type: TokenKeyword, Value: word})
			} else {
				tokens = append(tokens, Token{Type: TokenIdentifier, Value: word})
			}
			pos = end

		default:
			return nil, fmt.Errorf("unexpected character %q at column %d", r, pos+1)
		}
	}
	return tokens, nil
}

func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }
func isIdentPart(r rune) bool  { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

// Render writes tokens back out one per line as "<type> <value>" separated by a single
// space, e.g. "keyword class". It does not produce the XML token form.
func Render(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		fmt.Fprintf(&b, "%s %s\n", tok.Type, tok.Value)
	}
	return b.String()
}
