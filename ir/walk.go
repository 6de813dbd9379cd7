package ir

// Node is implemented by every IR entity visited by [Walk].
type Node interface {
	irNode()
}

func (*Project) irNode()     {}
func (*Module) irNode()      {}
func (*Program) irNode()     {}
func (*Subroutine) irNode()  {}
func (*Function) irNode()    {}
func (*DerivedType) irNode() {}
func (*Argument) irNode()    {}
func (*VarDecl) irNode()     {}
func (*UseStmt) irNode()     {}
func (*BodyLine) irNode()    {}

// A Visitor's Visit method is invoked for each node encountered by Walk.
// If the result visitor w is not nil, Walk visits each of the children
// of node with the visitor w, followed by a call of w.Visit(nil).
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses the IR in depth-first order. Modules and programs of a
// [Project] are visited in sorted name order, everything else in source order.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}
	switch n := node.(type) {
	case *Project:
		for _, m := range n.SortedModules() {
			Walk(v, m)
		}
		for _, pg := range n.SortedPrograms() {
			Walk(v, pg)
		}

	case *Module:
		walkUses(v, n.Uses)
		for _, dt := range n.Types {
			Walk(v, dt)
		}
		for _, c := range n.Callables() {
			Walk(v, c.(Node))
		}

	case *Program:
		walkUses(v, n.Uses)
		walkDecls(v, n.Decls)
		walkBody(v, n.Body)

	case *Subroutine:
		walkProcedure(v, &n.Procedure)

	case *Function:
		walkProcedure(v, &n.Procedure)

	case *DerivedType:
		walkDecls(v, n.Components)

	case *Argument, *VarDecl, *UseStmt, *BodyLine:
		// Leaves.
	}
	v.Visit(nil)
}

func walkProcedure(v Visitor, p *Procedure) {
	for _, a := range p.Args {
		Walk(v, a)
	}
	walkUses(v, p.Uses)
	walkDecls(v, p.Decls)
	walkBody(v, p.Body)
}

func walkUses(v Visitor, uses []UseStmt) {
	for i := range uses {
		Walk(v, &uses[i])
	}
}

func walkDecls(v Visitor, decls []*VarDecl) {
	for _, d := range decls {
		Walk(v, d)
	}
}

func walkBody(v Visitor, body []BodyLine) {
	for i := range body {
		Walk(v, &body[i])
	}
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses the IR in depth-first order calling f for each node.
// If f returns true, Inspect invokes f recursively for each child of node,
// followed by a call of f(nil).
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}
