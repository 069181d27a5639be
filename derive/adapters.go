package derive

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/oy3o/parcel"
	"github.com/oy3o/parcel/schema"
)

// Scope orders adapter bindings by precedence. Higher wins.
type Scope uint8

const (
	ScopeDefault Scope = iota
	ScopeGlobal
	ScopeClass
	ScopeField
)

func (s Scope) String() string {
	switch s {
	case ScopeDefault:
		return "default"
	case ScopeGlobal:
		return "global"
	case ScopeClass:
		return "class"
	case ScopeField:
		return "field"
	}
	return "unknown"
}

// AdapterBinding routes values of Source through a custom adapter.
type AdapterBinding struct {
	Source schema.TypeDescriptor
	// Adapter is the Go expression for the parcel.Adapter value.
	Adapter string
	// GoType is the Go type of adapted values; empty means the default mapping.
	GoType          string
	NullSafe        bool
	RequiresContext bool
	Scope           Scope
	// Owner is "" for global and default bindings, the schema name for
	// class bindings and Schema.field for field bindings.
	Owner string
}

// Site locates the field whose type is being classified.
type Site struct {
	Schema string
	Field  string
}

func (s Site) owner(scope Scope) string {
	switch scope {
	case ScopeClass:
		return s.Schema
	case ScopeField:
		if s.Schema == "" || s.Field == "" {
			return ""
		}
		return s.Schema + "." + s.Field
	}
	return ""
}

type bindingKey struct {
	scope  Scope
	owner  string
	source string
}

// AdapterRegistry holds the adapter bindings of one derivation run.
type AdapterRegistry struct {
	bindings map[bindingKey]AdapterBinding
	log      *zap.Logger
}

// NewAdapterRegistry returns a registry holding the default bindings for
// the builtin Time and BigInt types.
func NewAdapterRegistry(log *zap.Logger) *AdapterRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &AdapterRegistry{bindings: make(map[bindingKey]AdapterBinding), log: log}
	for _, b := range defaultBindings() {
		r.bindings[keyOf(b)] = b
	}
	return r
}

func defaultBindings() []AdapterBinding {
	return []AdapterBinding{
		{Source: schema.Named(schema.Time), Adapter: parcel.TimeAdapterName, GoType: "time.Time", Scope: ScopeDefault},
		{Source: schema.Named(schema.BigInt), Adapter: parcel.BigIntAdapterName, GoType: "*big.Int", Scope: ScopeDefault},
	}
}

func keyOf(b AdapterBinding) bindingKey {
	return bindingKey{scope: b.Scope, owner: b.Owner, source: b.Source.Canonical()}
}

// Register adds b. A second binding for the same type at the same scope and
// owner is a configuration conflict.
func (r *AdapterRegistry) Register(b AdapterBinding) error {
	b.Source = b.Source.StripVariance().WithNullable(false)
	k := keyOf(b)
	if prev, ok := r.bindings[k]; ok {
		subject := b.Owner
		if subject == "" {
			subject = b.Source.Canonical()
		}
		return newError(ConfigurationConflict, subject, fmt.Errorf("%w: %s bound to both %s and %s at %s scope",
			ErrAdapterConflict, k.source, prev.Adapter, b.Adapter, b.Scope))
	}
	r.bindings[k] = b
	r.log.Debug("adapter registered",
		zap.String("type", k.source),
		zap.String("adapter", b.Adapter),
		zap.Stringer("scope", b.Scope),
		zap.String("owner", b.Owner))
	return nil
}

// Declare registers an adapter declaration read from a schema file.
func (r *AdapterRegistry) Declare(d schema.AdapterDecl, scope Scope, owner string, bindings schema.Bindings) error {
	t, err := schema.ParseType(d.Type)
	if err != nil {
		return newError(ConfigurationConflict, owner, err)
	}
	return r.Register(AdapterBinding{
		Source:          t.Substitute(bindings),
		Adapter:         d.Adapter,
		GoType:          d.GoType,
		NullSafe:        d.NullSafe,
		RequiresContext: d.Context,
		Scope:           scope,
		Owner:           owner,
	})
}

// LookupFor finds the binding serving t at site. Scopes are tried from
// field down to default; within a scope the canonical type is tried
// before its erasure.
func (r *AdapterRegistry) LookupFor(t schema.TypeDescriptor, site Site) (AdapterBinding, bool) {
	t = t.StripVariance().WithNullable(false)
	sources := []string{t.Canonical()}
	if t.IsGeneric() {
		sources = append(sources, t.Erasure())
	}
	for _, scope := range []Scope{ScopeField, ScopeClass, ScopeGlobal, ScopeDefault} {
		owner := site.owner(scope)
		if owner == "" && scope >= ScopeClass {
			continue
		}
		for _, src := range sources {
			if b, ok := r.bindings[bindingKey{scope: scope, owner: owner, source: src}]; ok {
				return b, true
			}
		}
	}
	return AdapterBinding{}, false
}
