package schema

// Kind is the declaration kind of a type.
type Kind string

const (
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindEnum      Kind = "enum"
)

// AdapterDecl binds a custom adapter to a type. Declared at file level it is
// global, on a type it is class scoped, on a field it is field scoped.
type AdapterDecl struct {
	// Type is the type expression the adapter serves.
	Type string `yaml:"type" json:"type"`
	// Adapter is the Go expression naming a parcel.Adapter value.
	Adapter string `yaml:"adapter" json:"adapter"`
	// NullSafe adapters encode absent values themselves and get no presence flag.
	NullSafe bool `yaml:"nullSafe,omitempty" json:"nullSafe,omitempty"`
	// Context adapters need the decoder's loader.
	Context bool `yaml:"context,omitempty" json:"context,omitempty"`
	// GoType overrides the Go type the adapter produces.
	GoType string `yaml:"goType,omitempty" json:"goType,omitempty"`
}

// FieldMatcher excludes fields by name, by type, or both. An empty member matches anything.
type FieldMatcher struct {
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
}

// FieldDef declares one field of a class.
type FieldDef struct {
	Name      string        `yaml:"name" json:"name"`
	Type      string        `yaml:"type" json:"type"`
	Static    bool          `yaml:"static,omitempty" json:"static,omitempty"`
	Transient bool          `yaml:"transient,omitempty" json:"transient,omitempty"`
	Exclude   bool          `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Private   bool          `yaml:"private,omitempty" json:"private,omitempty"`
	Getter    string        `yaml:"getter,omitempty" json:"getter,omitempty"`
	Setter    string        `yaml:"setter,omitempty" json:"setter,omitempty"`
	Adapters  []AdapterDecl `yaml:"adapters,omitempty" json:"adapters,omitempty"`
}

// TypeDef declares a class, interface or enum.
type TypeDef struct {
	Name       string         `yaml:"name" json:"name"`
	Kind       Kind           `yaml:"kind,omitempty" json:"kind,omitempty"`
	Params     []string       `yaml:"params,omitempty" json:"params,omitempty"`
	Extends    string         `yaml:"extends,omitempty" json:"extends,omitempty"`
	Implements []string       `yaml:"implements,omitempty" json:"implements,omitempty"`
	Abstract   bool           `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Constants  []string       `yaml:"constants,omitempty" json:"constants,omitempty"`
	Fields     []FieldDef     `yaml:"fields,omitempty" json:"fields,omitempty"`
	Adapters   []AdapterDecl  `yaml:"adapters,omitempty" json:"adapters,omitempty"`
	Exclude    []FieldMatcher `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	// Constructor lists the fields passed, in order, to the type's constructor.
	// Without one, decoded values are built with a composite literal.
	Constructor []string `yaml:"constructor,omitempty" json:"constructor,omitempty"`
	// DescribeContents is reported alongside the derived codec, untouched.
	DescribeContents int `yaml:"describeContents,omitempty" json:"describeContents,omitempty"`
}

// File is the on-disk schema format.
type File struct {
	Package string `yaml:"package" json:"package"`
	// Imports lists the packages that adapter expressions and goType
	// overrides refer to. Generated code imports each of them.
	Imports  []string      `yaml:"imports,omitempty" json:"imports,omitempty"`
	Adapters []AdapterDecl `yaml:"adapters,omitempty" json:"adapters,omitempty"`
	Types    []TypeDef     `yaml:"types" json:"types"`
	Roots    []string      `yaml:"roots,omitempty" json:"roots,omitempty"`
}
