package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/gravsearch/internal/queryerr"
)

// tokenKind classifies lexical tokens.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI            // <...>, text is the IRI without brackets
	tokPName          // prefix:local, text as written
	tokVar            // ?name or $name, text is the name
	tokWord           // bare word: keywords, a, true, false, regex
	tokString         // quoted string, text is unescaped
	tokInteger        // [+-]digits
	tokDecimal        // [+-]digits.digits
	tokLang           // @tag, text is the tag
	tokDatatype       // ^^
	tokPunct          // { } ( ) . ; ,
	tokOp             // = != < <= > >= && || !
)

var tokenNames = map[tokenKind]string{
	tokEOF:      "end of query",
	tokIRI:      "IRI",
	tokPName:    "prefixed name",
	tokVar:      "variable",
	tokWord:     "keyword",
	tokString:   "string",
	tokInteger:  "integer",
	tokDecimal:  "decimal",
	tokLang:     "language tag",
	tokDatatype: "'^^'",
	tokPunct:    "punctuation",
	tokOp:       "operator",
}

func (k tokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return "token"
}

type token struct {
	kind   tokenKind
	text   string
	line   int
	column int
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of query"
	case tokIRI:
		return "<" + t.text + ">"
	case tokVar:
		return "?" + t.text
	case tokString:
		return strconv.Quote(t.text)
	case tokLang:
		return "@" + t.text
	}
	return "'" + t.text + "'"
}

// is reports whether t is the punctuation or operator text.
func (t token) is(text string) bool {
	return (t.kind == tokPunct || t.kind == tokOp || t.kind == tokDatatype) && t.text == text
}

// isKeyword matches bare words case-insensitively.
func (t token) isKeyword(kw string) bool {
	return t.kind == tokWord && strings.EqualFold(t.text, kw)
}

type lexer struct {
	src    string
	pos    int
	line   int
	column int
}

// tokenize splits src into tokens, ending with a tokEOF token.
func tokenize(src string) ([]token, error) {
	lx := &lexer{src: src, line: 1, column: 1}
	var toks []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (lx *lexer) peekByte(offset int) byte {
	if lx.pos+offset >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+offset]
}

// advance consumes n bytes, counting columns in runes.
func (lx *lexer) advance(n int) {
	for i := 0; i < n && lx.pos < len(lx.src); i++ {
		c := lx.src[lx.pos]
		lx.pos++
		switch {
		case c == '\n':
			lx.line++
			lx.column = 1
		case c&0xC0 != 0x80:
			lx.column++
		}
	}
}

func (lx *lexer) errorf(line, column int, format string, args ...any) error {
	return queryerr.Parse(line, column, format, args...)
}

func (lx *lexer) skipSpaceAndComments() {
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			lx.advance(1)
		case c == '#':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.advance(1)
			}
		default:
			return
		}
	}
}

func (lx *lexer) next() (token, error) {
	lx.skipSpaceAndComments()
	line, col := lx.line, lx.column
	tok := func(kind tokenKind, text string) token {
		return token{kind: kind, text: text, line: line, column: col}
	}

	if lx.pos >= len(lx.src) {
		return tok(tokEOF, ""), nil
	}

	c := lx.src[lx.pos]
	switch {
	case c == '<':
		if iri, n, ok := lx.scanIRIRef(); ok {
			lx.advance(n)
			return tok(tokIRI, iri), nil
		}
		if lx.peekByte(1) == '=' {
			lx.advance(2)
			return tok(tokOp, "<="), nil
		}
		lx.advance(1)
		return tok(tokOp, "<"), nil
	case c == '>':
		if lx.peekByte(1) == '=' {
			lx.advance(2)
			return tok(tokOp, ">="), nil
		}
		lx.advance(1)
		return tok(tokOp, ">"), nil
	case c == '=':
		lx.advance(1)
		return tok(tokOp, "="), nil
	case c == '!':
		if lx.peekByte(1) == '=' {
			lx.advance(2)
			return tok(tokOp, "!="), nil
		}
		lx.advance(1)
		return tok(tokOp, "!"), nil
	case c == '&':
		if lx.peekByte(1) != '&' {
			return token{}, lx.errorf(line, col, "unexpected character '&'")
		}
		lx.advance(2)
		return tok(tokOp, "&&"), nil
	case c == '|':
		if lx.peekByte(1) != '|' {
			return token{}, lx.errorf(line, col, "unexpected character '|'")
		}
		lx.advance(2)
		return tok(tokOp, "||"), nil
	case c == '^':
		if lx.peekByte(1) != '^' {
			return token{}, lx.errorf(line, col, "unexpected character '^'")
		}
		lx.advance(2)
		return tok(tokDatatype, "^^"), nil
	case strings.IndexByte("{}().;,", c) >= 0:
		if c == '.' && isDigit(lx.peekByte(1)) {
			return token{}, lx.errorf(line, col, "decimal literal must start with a digit")
		}
		lx.advance(1)
		return tok(tokPunct, string(c)), nil
	case c == '?' || c == '$':
		n := 1
		for isNameChar(lx.peekByte(n)) {
			n++
		}
		if n == 1 {
			return token{}, lx.errorf(line, col, "variable name expected after '%c'", c)
		}
		name := lx.src[lx.pos+1 : lx.pos+n]
		lx.advance(n)
		return tok(tokVar, name), nil
	case c == '"' || c == '\'':
		s, err := lx.scanString(line, col)
		if err != nil {
			return token{}, err
		}
		return tok(tokString, s), nil
	case c == '@':
		n := 1
		for isLetter(lx.peekByte(n)) || isDigit(lx.peekByte(n)) || lx.peekByte(n) == '-' {
			n++
		}
		if n == 1 {
			return token{}, lx.errorf(line, col, "language tag expected after '@'")
		}
		tag := lx.src[lx.pos+1 : lx.pos+n]
		lx.advance(n)
		return tok(tokLang, tag), nil
	case isDigit(c) || ((c == '-' || c == '+') && isDigit(lx.peekByte(1))):
		return lx.scanNumber(tok), nil
	case c == '_' && lx.peekByte(1) == ':':
		return token{}, lx.errorf(line, col, "blank nodes are not supported")
	case isLetter(c) || c == ':':
		return lx.scanName(tok), nil
	}

	r, _ := utf8.DecodeRuneInString(lx.src[lx.pos:])
	return token{}, lx.errorf(line, col, "unexpected character %q", r)
}

// scanIRIRef tries to read <...> at the current position. It fails
// without consuming input when the text is not an IRI reference, which
// makes '<' a comparison operator.
func (lx *lexer) scanIRIRef() (string, int, bool) {
	for i := lx.pos + 1; i < len(lx.src); i++ {
		c := lx.src[i]
		if c == '>' {
			return lx.src[lx.pos+1 : i], i - lx.pos + 1, true
		}
		if c <= ' ' || strings.IndexByte("<\"{}|^`\\", c) >= 0 {
			return "", 0, false
		}
	}
	return "", 0, false
}

func (lx *lexer) scanString(line, col int) (string, error) {
	quote := lx.src[lx.pos]
	lx.advance(1)

	var b strings.Builder
	for {
		if lx.pos >= len(lx.src) {
			return "", lx.errorf(line, col, "unterminated string literal")
		}
		c := lx.src[lx.pos]
		switch {
		case c == quote:
			lx.advance(1)
			return b.String(), nil
		case c == '\n' || c == '\r':
			return "", lx.errorf(line, col, "unterminated string literal")
		case c == '\\':
			escLine, escCol := lx.line, lx.column
			r, n, ok := lx.unescape()
			if !ok {
				return "", lx.errorf(escLine, escCol, "invalid escape sequence in string literal")
			}
			b.WriteRune(r)
			lx.advance(n)
		default:
			_, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
			b.WriteString(lx.src[lx.pos : lx.pos+size])
			lx.advance(size)
		}
	}
}

// unescape decodes the escape sequence at the current backslash.
func (lx *lexer) unescape() (rune, int, bool) {
	switch lx.peekByte(1) {
	case 't':
		return '\t', 2, true
	case 'n':
		return '\n', 2, true
	case 'r':
		return '\r', 2, true
	case 'b':
		return '\b', 2, true
	case 'f':
		return '\f', 2, true
	case '"':
		return '"', 2, true
	case '\'':
		return '\'', 2, true
	case '\\':
		return '\\', 2, true
	case 'u':
		return lx.unescapeHex(4)
	case 'U':
		return lx.unescapeHex(8)
	}
	return 0, 0, false
}

func (lx *lexer) unescapeHex(digits int) (rune, int, bool) {
	end := lx.pos + 2 + digits
	if end > len(lx.src) {
		return 0, 0, false
	}
	n, err := strconv.ParseUint(lx.src[lx.pos+2:end], 16, 32)
	if err != nil || !utf8.ValidRune(rune(n)) {
		return 0, 0, false
	}
	return rune(n), 2 + digits, true
}

func (lx *lexer) scanNumber(tok func(tokenKind, string) token) token {
	n := 0
	if c := lx.peekByte(0); c == '-' || c == '+' {
		n++
	}
	for isDigit(lx.peekByte(n)) {
		n++
	}
	kind := tokInteger
	if lx.peekByte(n) == '.' && isDigit(lx.peekByte(n+1)) {
		kind = tokDecimal
		n++
		for isDigit(lx.peekByte(n)) {
			n++
		}
	}
	text := lx.src[lx.pos : lx.pos+n]
	lx.advance(n)
	return tok(kind, text)
}

// scanName reads a bare word or a prefixed name. A trailing '.' belongs
// to the enclosing triple, not to the name.
func (lx *lexer) scanName(tok func(tokenKind, string) token) token {
	n := 0
	for isNameChar(lx.peekByte(n)) || lx.peekByte(n) == '-' || lx.peekByte(n) == '.' {
		n++
	}
	if lx.peekByte(n) != ':' {
		n = lx.trimDots(n)
		text := lx.src[lx.pos : lx.pos+n]
		lx.advance(n)
		return tok(tokWord, text)
	}

	n++ // colon
	for isNameChar(lx.peekByte(n)) || lx.peekByte(n) == '-' || lx.peekByte(n) == '.' {
		n++
	}
	n = lx.trimDots(n)
	text := lx.src[lx.pos : lx.pos+n]
	lx.advance(n)
	return tok(tokPName, text)
}

func (lx *lexer) trimDots(n int) int {
	for n > 0 && lx.src[lx.pos+n-1] == '.' {
		n--
	}
	return n
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isNameChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}

func (t token) String() string {
	return fmt.Sprintf("%s %s at %d:%d", t.kind, t.describe(), t.line, t.column)
}
