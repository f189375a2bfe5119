package dub

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenType int

const (
	typeUnknown tokenType = iota
	typeInt
	typeFloat
	typeIdentifier
	typeString
	typeQuote
	typeComma
	typeColon
	typeSlash
	typeAsterisk
	typeLeftBracket
	typeRightBracket
	typeEOF
)

const eof = -1

var punctuation = map[rune]tokenType{
	'\'': typeQuote,
	',':  typeComma,
	':':  typeColon,
	'/':  typeSlash,
	'*':  typeAsterisk,
	'[':  typeLeftBracket,
	']':  typeRightBracket,
}

type token struct {
	typ  tokenType
	pos  int
	text string
}

// stateFn scans one kind of token and returns the state that follows it.
// A nil state ends the scan.
type stateFn func(*lexer) stateFn

type lexer struct {
	input string
	start int
	pos   int
	width int

	tokens []token
	err    error
}

// lex splits a command line into tokens. The last token is always typeEOF
// unless an error is returned.
func lex(input string) ([]token, error) {
	l := &lexer{input: input}
	for state := lexAny; state != nil; {
		state = state(l)
	}
	return l.tokens, l.err
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	return r
}

func (l *lexer) backup() { l.pos -= l.width }

func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *lexer) accept(valid string) bool {
	if strings.ContainsRune(valid, l.next()) {
		return true
	}
	l.backup()
	return false
}

func (l *lexer) acceptWhile(valid func(rune) bool) {
	for valid(l.next()) {
	}
	l.backup()
}

func (l *lexer) emit(typ tokenType) {
	l.tokens = append(l.tokens, token{typ: typ, pos: l.start, text: l.input[l.start:l.pos]})
	l.start = l.pos
}

func (l *lexer) errorf(format string, args ...interface{}) stateFn {
	l.err = fmt.Errorf(format, args...)
	return nil
}

// endToken emits typ if the token is followed by a delimiter.
func (l *lexer) endToken(typ tokenType) stateFn {
	if r := l.peek(); !isDelimiter(r) {
		return l.errorf("unexpected character: %#U", r)
	}
	l.emit(typ)
	return lexAny
}

func lexAny(l *lexer) stateFn {
	r := l.next()
	switch {
	case r == eof:
		l.emit(typeEOF)
		return nil
	case unicode.IsSpace(r):
		return lexSpace
	case unicode.IsLetter(r):
		return lexIdentifier
	case r == '"':
		return lexString
	case startsNumber(r, l.input[l.pos:]):
		l.backup()
		return lexNumber
	}
	if typ, ok := punctuation[r]; ok {
		l.emit(typ)
		return lexAny
	}
	return l.errorf("unexpected character: %#U", r)
}

func lexSpace(l *lexer) stateFn {
	l.acceptWhile(unicode.IsSpace)
	l.start = l.pos
	return lexAny
}

// lexIdentifier accepts names like kick, synth-1, c#4 and
// synth.0.filter.frequency.
func lexIdentifier(l *lexer) stateFn {
	l.acceptWhile(func(r rune) bool {
		return unicode.IsLetter(r) || isDigit(r) || strings.ContainsRune("_-.#", r)
	})
	return l.endToken(typeIdentifier)
}

// lexString scans up to the closing quote. Escaped quotes don't end the
// string; the parser unquotes the text.
func lexString(l *lexer) stateFn {
	for {
		switch l.next() {
		case '\\':
			l.next()
		case '"':
			l.emit(typeString)
			return lexAny
		case eof:
			return l.errorf("unterminated string")
		}
	}
}

func lexNumber(l *lexer) stateFn {
	l.accept("-")
	l.acceptWhile(isDigit)
	typ := typeInt
	if l.accept(".") {
		typ = typeFloat
		l.acceptWhile(isDigit)
	}
	return l.endToken(typ)
}

// startsNumber reports whether r followed by rest begins a number: 1, -1,
// .5 and -.5 all do.
func startsNumber(r rune, rest string) bool {
	switch {
	case isDigit(r):
		return true
	case r == '-' && strings.HasPrefix(rest, "."):
		return digitAt(rest, 1)
	case r == '-', r == '.':
		return digitAt(rest, 0)
	}
	return false
}

func digitAt(s string, i int) bool {
	return i < len(s) && isDigit(rune(s[i]))
}

// isDelimiter reports whether r may follow a number or an identifier.
func isDelimiter(r rune) bool {
	return r == eof || unicode.IsSpace(r) || strings.ContainsRune("/:,]", r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
