package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		src       string
		want      TypeDescriptor
		str       string
		canonical string
	}{
		{
			src:       "int32",
			want:      Named("int32"),
			str:       "int32",
			canonical: "int32",
		},
		{
			src:       "List<string>?",
			want:      Named("List", Named("string")).WithNullable(true),
			str:       "List<string>?",
			canonical: "List<string>",
		},
		{
			src: "Map< string , List<out Item?> >",
			want: Named("Map", Named("string"), Named("List",
				TypeDescriptor{Name: "Item", Variance: Covariant, Nullable: true})),
			str:       "Map<string, List<out Item?>>",
			canonical: "Map<string, List<Item?>>",
		},
		{
			src:       "[]int8?",
			want:      Named("Array", Named("int8")).WithNullable(true),
			str:       "Array<int8>?",
			canonical: "Array<int8>",
		},
		{
			src:       "in Comparable<T>",
			want:      TypeDescriptor{Name: "Comparable", Args: []TypeDescriptor{Named("T")}, Variance: Contravariant},
			str:       "in Comparable<T>",
			canonical: "Comparable<T>",
		},
		{
			src:       "model.Point",
			want:      Named("model.Point"),
			str:       "model.Point",
			canonical: "model.Point",
		},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := ParseType(tt.src)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, tt.str, got.String())
			assert.Equal(t, tt.canonical, got.Canonical())

			again := MustParse(tt.src)
			assert.True(t, got.Equal(again))
		})
	}
}

func TestParseTypeErrors(t *testing.T) {
	for _, src := range []string{"", "List<", "List<string", "Map<string,>", "int32 x", "[int32", "List<string>>"} {
		_, err := ParseType(src)
		assert.ErrorIs(t, err, ErrSyntax, "%q", src)
	}
	assert.Panics(t, func() { MustParse("<") })
}

func TestSubstitute(t *testing.T) {
	b := Bindings{"T": Named("int32"), "U": MustParse("List<string>")}

	got := MustParse("Map<T?, out U>").Substitute(b)
	assert.Equal(t, "Map<int32?, out List<string>>", got.String())
	assert.Equal(t, "Map<int32?, List<string>>", got.Canonical())

	assert.Equal(t, "V", MustParse("V").Substitute(b).String())
	assert.Equal(t, "T", MustParse("T").Substitute(nil).String())
}

func newTestUniverse(t *testing.T) *Universe {
	t.Helper()
	u, err := NewUniverse([]TypeDef{
		{Name: "Named", Kind: KindInterface, Implements: []string{Serializable}},
		{Name: "Base", Params: []string{"T"}, Abstract: true, Fields: []FieldDef{{Name: "id", Type: "T"}}},
		{Name: "Tags", Implements: []string{"List<string>", "Named"}},
		{Name: "User", Extends: "Base<int64>", Fields: []FieldDef{{Name: "tags", Type: "Tags"}}},
		{Name: "Color", Kind: KindEnum, Constants: []string{"RED", "GREEN"}},
	})
	require.NoError(t, err)
	return u
}

func TestUniverseSupertypes(t *testing.T) {
	u := newTestUniverse(t)

	var names []string
	for _, s := range u.Supertypes(Named("Tags")) {
		names = append(names, s.String())
	}
	// own type, then interfaces depth first, then the superclass chain.
	assert.Equal(t, []string{"Tags", "List<string>", "Collection<string>", "Named", "Serializable"}, names)

	sup, ok := u.Superclass(Named("User"))
	require.True(t, ok)
	assert.Equal(t, "Base<int64>", sup.String())

	fields := u.Fields(sup)
	require.Len(t, fields, 1)
	assert.Equal(t, "int64", fields[0].Type.String())

	assert.True(t, u.Assignable(Named("Base"), Named("User")))
	assert.True(t, u.Assignable(Named("Serializable"), Named("Tags")))
	assert.False(t, u.Assignable(Named("Tags"), Named("User")))

	assert.True(t, u.IsBuiltin("List"))
	assert.False(t, u.IsBuiltin("Tags"))
	assert.Len(t, u.Types(), 5)
}

func TestUniverseBind(t *testing.T) {
	u := newTestUniverse(t)

	b, err := u.Bind(MustParse("Base<string>"))
	require.NoError(t, err)
	assert.Equal(t, "string", b["T"].String())

	_, err = u.Bind(Named("Base"))
	assert.ErrorIs(t, err, ErrArity)
}

func TestUniverseErrors(t *testing.T) {
	tests := []struct {
		name string
		defs []TypeDef
		want error
	}{
		{"Duplicate", []TypeDef{{Name: "A"}, {Name: "A"}}, ErrDuplicateType},
		{"ShadowsBuiltin", []TypeDef{{Name: "List"}}, ErrDuplicateType},
		{"Primitive", []TypeDef{{Name: "int32"}}, ErrDuplicateType},
		{"UnknownKind", []TypeDef{{Name: "A", Kind: "struct"}}, ErrInvalidDecl},
		{"BadFieldType", []TypeDef{{Name: "A", Fields: []FieldDef{{Name: "x", Type: "List<"}}}}, ErrSyntax},
		{"ExtendsInterface", []TypeDef{{Name: "A", Extends: "Serializable"}}, ErrBadSupertype},
		{"ImplementsClass", []TypeDef{{Name: "A"}, {Name: "B", Implements: []string{"A"}}}, ErrBadSupertype},
		{"ExtendsArity", []TypeDef{{Name: "A", Params: []string{"T"}}, {Name: "B", Extends: "A"}}, ErrArity},
		{"Cycle", []TypeDef{{Name: "A", Extends: "B"}, {Name: "B", Extends: "A"}}, ErrCyclicHierarchy},
		{"AdapterWithoutExpr", []TypeDef{{Name: "A", Adapters: []AdapterDecl{{Type: "Time"}}}}, ErrInvalidDecl},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUniverse(tt.defs)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

const yamlSchema = `
package: model
imports: [example.com/clock]
adapters:
  - type: Time
    adapter: model.ClockAdapter
types:
  - name: Pair
    fields:
      - name: a
        type: int32
      - name: b
        type: List<string>?
roots: [Pair]
`

const jsoncSchema = `{
  // the same schema, as JSONC
  "package": "model",
  "imports": ["example.com/clock"],
  "adapters": [{"type": "Time", "adapter": "model.ClockAdapter"}],
  "types": [
    {"name": "Pair", "fields": [
      {"name": "a", "type": "int32"},
      {"name": "b", "type": "List<string>?"}, /* trailing comma */
    ]},
  ],
  "roots": ["Pair"],
}`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{"pair.yaml": yamlSchema, "pair.jsonc": jsoncSchema}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		f, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, "model", f.Package)
		require.Len(t, f.Types, 1)
		assert.Equal(t, "List<string>?", f.Types[0].Fields[1].Type)
		assert.Equal(t, "model.ClockAdapter", f.Adapters[0].Adapter)
		assert.Equal(t, []string{"example.com/clock"}, f.Imports)

		u, err := f.Universe()
		require.NoError(t, err)
		_, ok := u.Lookup("Pair")
		assert.True(t, ok)

		roots, err := f.RootTypes()
		require.NoError(t, err)
		assert.Equal(t, "Pair", roots[0].String())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := ParseYAML([]byte("package: x\ntypez: []\n"))
	assert.Error(t, err)

	_, err = ParseJSON([]byte(`{"package": "x", "typez": []}`))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "schema.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
