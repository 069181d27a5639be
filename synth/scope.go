package synth

import (
	"go/token"
	"strconv"
)

var predeclared = []string{
	"any", "append", "bool", "byte", "cap", "clear", "close", "comparable", "complex",
	"complex64", "complex128", "copy", "delete", "error", "false", "float32", "float64",
	"imag", "int", "int8", "int16", "int32", "int64", "iota", "len", "make", "max", "min",
	"new", "nil", "panic", "print", "println", "real", "recover", "rune", "string", "true",
	"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
}

// scope tracks the identifiers visible at one block of a procedure. A name
// claimed in a scope is unavailable there and in every nested scope.
type scope struct {
	parent *scope
	names  map[string]bool
}

func newScope(reserved ...[]string) *scope {
	s := &scope{names: map[string]bool{}}
	for _, set := range reserved {
		for _, n := range set {
			s.names[n] = true
		}
	}
	for _, n := range predeclared {
		s.names[n] = true
	}
	return s
}

func (s *scope) child() *scope {
	return &scope{parent: s, names: map[string]bool{}}
}

func (s *scope) visible(name string) bool {
	for c := s; c != nil; c = c.parent {
		if c.names[name] {
			return true
		}
	}
	return false
}

// claim returns base, or base followed by the smallest positive number that
// makes it free, and marks the result as taken.
func (s *scope) claim(base string) string {
	name := base
	for i := 1; token.IsKeyword(name) || s.visible(name); i++ {
		name = base + strconv.Itoa(i)
	}
	s.names[name] = true
	return name
}
