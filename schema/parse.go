package schema

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"
)

// parseCache holds every successfully parsed expression. Schema files
// repeat the same handful of type expressions many times over.
var parseCache = xsync.NewMap[string, TypeDescriptor]()

// ParseType parses a type expression:
//
//	type     = [ "out" | "in" ] base [ "?" ]
//	base     = "[]" base | name [ "<" type { "," type } ">" ]
//
// "[]T" is shorthand for Array<T>. A trailing "?" applies to the whole
// expression it follows, so "[]string?" is a nullable array of strings and
// Array<string?> is an array of nullable strings.
func ParseType(src string) (TypeDescriptor, error) {
	if t, ok := parseCache.Load(src); ok {
		return t, nil
	}
	p := &parser{src: src}
	t, err := p.parseType()
	if err == nil {
		p.skipSpace()
		if p.pos < len(p.src) {
			err = p.errorf("unexpected %q", p.src[p.pos:])
		}
	}
	if err != nil {
		return TypeDescriptor{}, err
	}
	parseCache.Store(src, t)
	return t, nil
}

// MustParse is ParseType for expressions known to be valid. It panics on error.
func MustParse(src string) TypeDescriptor {
	t, err := ParseType(src)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %q at offset %d: %s", ErrSyntax, p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) parseType() (TypeDescriptor, error) {
	variance := Invariant
	save := p.pos
	switch word := p.ident(); word {
	case "out", "in":
		// a bare "out" or "in" is a type name, not a marker.
		if c := p.peek(); isIdentStart(c) || c == '[' {
			if word == "out" {
				variance = Covariant
			} else {
				variance = Contravariant
			}
		} else {
			p.pos = save
		}
	default:
		p.pos = save
	}

	t, err := p.parseBase()
	if err != nil {
		return t, err
	}
	t.Variance = variance
	if p.peek() == '?' {
		p.pos++
		t.Nullable = true
	}
	return t, nil
}

func (p *parser) parseBase() (TypeDescriptor, error) {
	if p.peek() == '[' {
		if p.pos+1 >= len(p.src) || p.src[p.pos+1] != ']' {
			return TypeDescriptor{}, p.errorf("expected []")
		}
		p.pos += 2
		elem, err := p.parseBase()
		if err != nil {
			return elem, err
		}
		return Named("Array", elem), nil
	}

	p.skipSpace()
	name := p.ident()
	if name == "" {
		return TypeDescriptor{}, p.errorf("expected type name")
	}
	t := TypeDescriptor{Name: name}
	if p.peek() != '<' {
		return t, nil
	}
	p.pos++
	for {
		arg, err := p.parseType()
		if err != nil {
			return t, err
		}
		t.Args = append(t.Args, arg)
		switch p.peek() {
		case ',':
			p.pos++
		case '>':
			p.pos++
			return t, nil
		default:
			return t, p.errorf("expected , or >")
		}
	}
}

func (p *parser) ident() string {
	p.skipSpace()
	start := p.pos
	if p.pos < len(p.src) && isIdentStart(p.src[p.pos]) {
		p.pos++
		for p.pos < len(p.src) && (isIdentStart(p.src[p.pos]) || isDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
			p.pos++
		}
	}
	return p.src[start:p.pos]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
