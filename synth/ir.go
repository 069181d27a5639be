package synth

import (
	"github.com/oy3o/parcel/derive"
	"github.com/oy3o/parcel/schema"
)

// Expr is a value an encode statement reads.
type Expr interface{ isExpr() }

// Local names a parameter or local variable.
type Local struct{ Name string }

// Member is a property of the value held in Recv.
type Member struct {
	Recv string
	Prop *derive.Property
}

func (Local) isExpr()  {}
func (Member) isExpr() {}

// Stmt is one step of a procedure. The set is closed; the renderer and the
// interpreter switch over the concrete types below.
type Stmt interface{ isStmt() }

// Guard writes the presence flag of Value and runs Body if it is present.
type Guard struct {
	Value Expr
	Body  []Stmt
}

// PutLength writes the element count of Value.
type PutLength struct{ Value Expr }

// Each runs Body once per element of Over, binding Item and, for maps and
// sparse containers, Key.
type Each struct {
	Key, Item string
	Over      Expr
	Body      []Stmt
}

// Put writes a leaf value. Deref is set when the value sits behind a
// presence guard and its Go type is a pointer to the written type.
type Put struct {
	Slot  derive.Slot
	Value Expr
	Deref bool
}

// Declare introduces a local holding the zero value of Slot.
type Declare struct {
	Name string
	Slot derive.Slot
}

// IfPresent reads a presence flag and runs Body if it is set.
type IfPresent struct{ Body []Stmt }

// GetLength declares Name and reads an element count into it.
type GetLength struct{ Name string }

// Get reads a leaf value into Dst. Tmp names the local an adapter result
// is checked in before it is assigned.
type Get struct {
	Dst  string
	Slot derive.Slot
	Tmp  string
}

// Box stores a pointer to Src in Dst.
type Box struct{ Dst, Src string }

// Make allocates the container for Slot into Dst. Size is the element
// count read from the input; at most parcel.PreallocLimit is reserved.
type Make struct {
	Dst  string
	Slot derive.Slot
	Size string
}

// Loop runs Body Count times. It stops early once the reader has failed.
type Loop struct {
	Count string
	Body  []Stmt
}

// Append appends Src to the array or collection Dst.
type Append struct{ Dst, Src string }

// Insert adds the entry Key, Src to the map Dst.
type Insert struct{ Dst, Key, Src string }

// Build constructs and returns the decoded value. Values holds the local of
// each property of Schema, in property order. Result names the local the
// value is built in when setters have to run before returning.
type Build struct {
	Schema *derive.Schema
	Values []string
	Result string
}

// Shared returns the shared instance of a singleton.
type Shared struct{ Schema *derive.Schema }

func (Guard) isStmt()     {}
func (PutLength) isStmt() {}
func (Each) isStmt()      {}
func (Put) isStmt()       {}
func (Declare) isStmt()   {}
func (IfPresent) isStmt() {}
func (GetLength) isStmt() {}
func (Get) isStmt()       {}
func (Box) isStmt()       {}
func (Make) isStmt()      {}
func (Loop) isStmt()      {}
func (Append) isStmt()    {}
func (Insert) isStmt()    {}
func (Build) isStmt()     {}
func (Shared) isStmt()    {}

// Param is a procedure parameter.
type Param struct{ Name, Type string }

// Procedure is one synthesized encode or decode function.
type Procedure struct {
	Name   string
	Schema *derive.Schema
	Params []Param
	// Result is the Go type a decode procedure returns; empty for encoders.
	Result string
	// Context is set on decoders that take the loader.
	Context bool
	Body    []Stmt
}

// Decoder reports whether p is a decode procedure.
func (p *Procedure) Decoder() bool { return p.Result != "" }

var sparseKey = derive.Slot{Kind: derive.PrimitiveKind{Prim: "int32"}, Type: schema.Named("int32")}
