package dub

import (
	"fmt"
	"strconv"
)

type Node interface {
	isNode()
}

// Command is a single line of input: a name followed by arguments.
type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string

func (Identifier) isNode() {}

type Int int

func (Int) isNode() {}

type Float float64

func (Float) isNode() {}

type String string

func (String) isNode() {}

// List is a bracketed list of values, e.g. [60 64 67].
type List []Node

func (List) isNode() {}

// MatchExpr selects steps on the 16-step grid, e.g. '2,4 or '*//1,3.
type MatchExpr struct {
	matchers []matchItem
}

func (MatchExpr) isNode() {}

type parser struct {
	tokens []token
	pos    int
}

func Parse(input string) (Command, error) {
	var cmd Command

	tokens, err := lex(input)
	if err != nil {
		return cmd, err
	}

	p := &parser{tokens: tokens}

	name := p.next()
	if name.typ != typeIdentifier {
		return cmd, unexpected(name)
	}
	cmd.Name = Identifier(name.text)

	for token := p.next(); token.typ != typeEOF; token = p.next() {
		arg, err := p.value(token)
		if err != nil {
			return cmd, err
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

func (p *parser) value(token token) (Node, error) {
	switch token.typ {
	case typeIdentifier:
		return Identifier(token.text), nil
	case typeInt:
		n, err := strconv.Atoi(token.text)
		if err != nil {
			return nil, err
		}
		return Int(n), nil
	case typeFloat:
		f, err := strconv.ParseFloat(token.text, 64)
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case typeString:
		s, err := strconv.Unquote(token.text)
		if err != nil {
			return nil, fmt.Errorf("invalid string %s: %w", token.text, err)
		}
		return String(s), nil
	case typeLeftBracket:
		return p.list()
	case typeQuote:
		return p.matchExpr()
	default:
		return nil, unexpected(token)
	}
}

func (p *parser) list() (List, error) {
	list := List{}
	for {
		token := p.next()
		switch token.typ {
		case typeRightBracket:
			return list, nil
		case typeComma:
			continue
		case typeLeftBracket, typeQuote, typeEOF:
			return nil, unexpected(token)
		}
		v, err := p.value(token)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

// A match expression runs to the end of the input. Each slash moves one
// level down, from beats to 8th notes to 16th notes.
func (p *parser) matchExpr() (MatchExpr, error) {
	var expr MatchExpr
	level := 0
	for {
		m, err := p.matcher()
		if err != nil {
			return expr, err
		}
		expr.matchers = append(expr.matchers, matchItem{level: level, matcher: m})

		slashes := 0
		for p.peek().typ == typeSlash {
			p.next()
			slashes++
		}
		if slashes == 0 {
			if t := p.peek(); t.typ != typeEOF {
				return expr, unexpected(t)
			}
			return expr, nil
		}
		level += slashes
		if level >= numLevels {
			return expr, fmt.Errorf("match expression is deeper than 16th notes")
		}
	}
}

func (p *parser) matcher() (matcher, error) {
	start := p.next()
	switch start.typ {
	case typeAsterisk:
		return matchAll, nil
	case typeInt:
	default:
		return nil, unexpected(start)
	}

	n, _ := strconv.Atoi(start.text)
	if p.peek().typ == typeColon {
		p.next()
		end := p.next()
		if end.typ != typeInt {
			return nil, unexpected(end)
		}
		m, _ := strconv.Atoi(end.text)
		if m < n {
			return nil, fmt.Errorf("invalid range %d:%d", n, m)
		}
		return rangeMatch{start: n, end: m}, nil
	}

	list := listMatch{n}
	for p.peek().typ == typeComma {
		p.next()
		t := p.next()
		if t.typ != typeInt {
			return nil, unexpected(t)
		}
		n, _ := strconv.Atoi(t.text)
		list = append(list, n)
	}
	return list, nil
}

func unexpected(t token) error {
	if t.typ == typeEOF {
		return fmt.Errorf("unexpected end of input")
	}
	return fmt.Errorf("unexpected token %q at position %d", t.text, t.pos)
}
