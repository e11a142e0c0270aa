// Package hdl builds the structural description of a fabric as a sequence
// of target-neutral requests and renders it through interchangeable
// emitters.
package hdl

// Dir is the direction of a module port.
type Dir int

const (
	In Dir = iota
	Out
)

// A Port is a module port. Vector ports are declared as buses even when
// they are one bit wide.
type Port struct {
	Name   string
	Dir    Dir
	Width  int
	Vector bool
}

// Scalar creates a one bit port.
func Scalar(name string, dir Dir) Port {
	return Port{Name: name, Dir: dir, Width: 1}
}

// Bus creates a vector port.
func Bus(name string, dir Dir, width int) Port {
	return Port{Name: name, Dir: dir, Width: width, Vector: true}
}

// A Param is an integer module parameter.
type Param struct {
	Name  string
	Value int
}

// Expr is a structured port-map actual or assignment operand.
type Expr interface {
	isExpr()
}

// Ref refers to a whole signal or port.
type Ref struct {
	Name string
}

// Index selects one bit of a bus.
type Index struct {
	Name  string
	Index int
}

// Slice selects the bits [Hi:Lo] of a bus.
type Slice struct {
	Name   string
	Hi, Lo int
}

// Concat joins its parts, most significant first.
type Concat struct {
	Parts []Expr
}

// Const is a literal of Width bits.
type Const struct {
	Width int
	Value uint64
}

func (Ref) isExpr()    {}
func (Index) isExpr()  {}
func (Slice) isExpr()  {}
func (Concat) isExpr() {}
func (Const) isExpr()  {}

// Request is one structural element of a description.
type Request interface {
	isRequest()
}

// Module starts a module. Every request up to the next Module belongs to
// it.
type Module struct {
	Name   string
	Params []Param
	Ports  []Port
}

// Signal declares an internal wire.
type Signal struct {
	Name   string
	Width  int
	Vector bool
}

// Assign drives Target with Value.
type Assign struct {
	Target Expr
	Value  Expr
}

// PortMap binds a formal port of an instance to an actual expression.
type PortMap struct {
	Formal string
	Actual Expr
}

// Instance instantiates a module.
type Instance struct {
	Module string
	Name   string
	Params []Param
	Ports  []PortMap
}

// Comment is a line of commentary.
type Comment struct {
	Text string
}

func (Module) isRequest()   {}
func (Signal) isRequest()   {}
func (Assign) isRequest()   {}
func (Instance) isRequest() {}
func (Comment) isRequest()  {}
