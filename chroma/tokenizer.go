// Package chroma provides syntax highlighting using the chroma library.
package chroma

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/fwojciec/diffmod"
)

// Compile-time interface verification.
var (
	_ diffmod.Tokenizer        = (*Tokenizer)(nil)
	_ diffmod.LanguageDetector = (*Detector)(nil)
)

// StyleFunc maps a chroma token type to a visual style.
type StyleFunc func(chroma.TokenType) diffmod.Style

// Tokenizer extracts syntax tokens using chroma.
type Tokenizer struct {
	style StyleFunc
}

// NewTokenizer creates a new chroma-based tokenizer.
func NewTokenizer(style StyleFunc) (*Tokenizer, error) {
	if style == nil {
		return nil, errors.New("chroma: style function is required")
	}
	return &Tokenizer{style: style}, nil
}

// Tokenize splits source code into syntax-highlighted tokens for the given language.
// Returns nil if the language is not supported or an error occurs.
// Returns an empty slice for empty source (valid input, no tokens).
func (t *Tokenizer) Tokenize(language, source string) []diffmod.Token {
	if source == "" {
		return []diffmod.Token{}
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		return nil
	}

	// Coalesce for better performance with consecutive tokens of the same type
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return nil
	}

	var tokens []diffmod.Token
	for token := iterator(); token != chroma.EOF; token = iterator() {
		tokens = append(tokens, diffmod.Token{
			Text:  token.Value,
			Style: t.style(token.Type),
		})
	}

	// Lexers with EnsureNL append a newline the source did not have.
	if n := len(tokens); n > 0 && !strings.HasSuffix(source, "\n") {
		tokens[n-1].Text = strings.TrimSuffix(tokens[n-1].Text, "\n")
		if tokens[n-1].Text == "" {
			tokens = tokens[:n-1]
		}
	}

	return tokens
}

// TokenizeLines tokenizes source as a whole and splits the tokens at line
// breaks. Tokens never contain a newline.
func (t *Tokenizer) TokenizeLines(language, source string) [][]diffmod.Token {
	if source == "" {
		return [][]diffmod.Token{}
	}
	tokens := t.Tokenize(language, source)
	if tokens == nil {
		return nil
	}

	lines := [][]diffmod.Token{nil}
	for _, tok := range tokens {
		parts := strings.Split(tok.Text, "\n")
		for i, part := range parts {
			if i > 0 {
				lines = append(lines, nil)
			}
			if part != "" {
				last := len(lines) - 1
				lines[last] = append(lines[last], diffmod.Token{Text: part, Style: tok.Style})
			}
		}
	}
	// A trailing newline does not start another line.
	if strings.HasSuffix(source, "\n") {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// StyleFromPalette returns a StyleFunc that colors tokens from p.
func StyleFromPalette(p diffmod.Palette) StyleFunc {
	return func(tt chroma.TokenType) diffmod.Style {
		return paletteStyle(p, tt)
	}
}

// paletteStyle returns the visual style for a chroma token type.
func paletteStyle(p diffmod.Palette, tt chroma.TokenType) diffmod.Style {
	// Use direct type comparison for specific types,
	// then fall through to category checks for broader matches.
	switch tt {
	// Keywords
	case chroma.Keyword, chroma.KeywordConstant, chroma.KeywordDeclaration,
		chroma.KeywordNamespace, chroma.KeywordPseudo, chroma.KeywordReserved,
		chroma.KeywordType:
		return diffmod.Style{Foreground: string(p.Keyword), Bold: true}

	// Comments
	case chroma.Comment, chroma.CommentHashbang, chroma.CommentMultiline,
		chroma.CommentPreproc, chroma.CommentPreprocFile, chroma.CommentSingle,
		chroma.CommentSpecial:
		return diffmod.Style{Foreground: string(p.Comment)}

	// Strings (String* and LiteralString* are aliases, so only use one set)
	case chroma.String, chroma.StringAffix, chroma.StringBacktick, chroma.StringChar,
		chroma.StringDelimiter, chroma.StringDoc, chroma.StringDouble,
		chroma.StringEscape, chroma.StringHeredoc, chroma.StringInterpol,
		chroma.StringOther, chroma.StringRegex, chroma.StringSingle,
		chroma.StringSymbol:
		return diffmod.Style{Foreground: string(p.String)}

	// Numbers (Number* and LiteralNumber* are aliases, so only use one set)
	case chroma.Number, chroma.NumberBin, chroma.NumberFloat, chroma.NumberHex,
		chroma.NumberInteger, chroma.NumberIntegerLong, chroma.NumberOct:
		return diffmod.Style{Foreground: string(p.Number)}

	case chroma.Operator, chroma.OperatorWord:
		return diffmod.Style{Foreground: string(p.Operator)}

	// Builtin names (e.g., println, len, make)
	case chroma.NameBuiltin, chroma.NameBuiltinPseudo:
		return diffmod.Style{Foreground: string(p.Builtin)}

	case chroma.NameFunction, chroma.NameFunctionMagic:
		return diffmod.Style{Foreground: string(p.Function)}

	// Other names (general identifiers)
	case chroma.Name, chroma.NameAttribute, chroma.NameClass, chroma.NameConstant,
		chroma.NameDecorator, chroma.NameEntity, chroma.NameException,
		chroma.NameLabel, chroma.NameNamespace, chroma.NameOther,
		chroma.NameProperty, chroma.NameTag, chroma.NameVariable,
		chroma.NameVariableAnonymous, chroma.NameVariableClass,
		chroma.NameVariableGlobal, chroma.NameVariableInstance,
		chroma.NameVariableMagic:
		return diffmod.Style{Foreground: string(p.Name)}

	default:
		return diffmod.Style{}
	}
}

// Detector picks a lexer from a file name.
type Detector struct{}

// NewDetector creates a new chroma-based language detector.
func NewDetector() *Detector {
	return &Detector{}
}

// DetectFromPath returns the chroma lexer name for path, or "" if no lexer
// matches its file name.
func (d *Detector) DetectFromPath(path string) string {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		return ""
	}
	return lexer.Config().Name
}
