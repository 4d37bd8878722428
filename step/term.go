// Package step implements the evaluation engine for the step-chain
// generative logic language: term representation and unification, binding
// environments, the output accumulator, method/task dispatch with
// continuation-passing backtracking, and the higher-order combinators.
//
// The lexer, bracket parser, and method-definition front end that produce
// the structures this package consumes live outside this package (see
// packages parse and loader) — this package only defines the interfaces
// they build against.
package step

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind discriminates the four term shapes described by the data model:
// ground values, local logic variables, state variables, and tuples.
type Kind uint8

const (
	KindGround Kind = iota
	KindVar
	KindState
	KindTuple
)

// GroundKind discriminates the concrete ground value shapes: string,
// number, boolean, tagged list cell, and the two task-reference shapes a
// call target can resolve to (a bare name, or an already-resolved callable
// value flowing through the term system like any other value).
type GroundKind uint8

const (
	GString GroundKind = iota
	GNumber
	GBool
	GList
	GTaskRef
	GTaskVal
)

// Cell is a cons cell of a tagged list; a nil *Cell is the empty list.
type Cell struct {
	Head Term
	Tail *Cell
}

// Ground is the payload of a KindGround term. Exactly one field is
// meaningful, selected by Kind.
type Ground struct {
	Kind GroundKind
	Str  string          // GString, GTaskRef
	Num  decimal.Decimal // GNumber
	Bit  bool            // GBool
	List *Cell           // GList
	Task any             // GTaskVal: *CompoundTask | DeterministicTextGenerator | Predicate | MetaTask
}

// Equal implements the "ground vs ground -> structural equality" unifier
// rule (§4.A rule 5). List cells compare recursively through Term.Equal;
// the occurs check is intentionally absent, so a self-referential Cell
// built by a caller will loop forever here — callers that accept
// externally constructed lists should guard with a depth-bounded walk.
func (g Ground) Equal(o Ground) bool {
	if g.Kind != o.Kind {
		return false
	}
	switch g.Kind {
	case GString, GTaskRef:
		return g.Str == o.Str
	case GNumber:
		return g.Num.Equal(o.Num)
	case GBool:
		return g.Bit == o.Bit
	case GList:
		return cellEqual(g.List, o.List)
	case GTaskVal:
		return sameCallable(g.Task, o.Task)
	default:
		return false
	}
}

func cellEqual(a, b *Cell) bool {
	for a != nil && b != nil {
		if !a.Head.Equal(b.Head) {
			return false
		}
		a, b = a.Tail, b.Tail
	}
	return a == nil && b == nil
}

// sameCallable compares two task values for identity: function values are
// never comparable with ==, so only *CompoundTask pointer identity and
// nil-ness are meaningful; two distinct primitive closures are never equal
// even if they behave the same.
func sameCallable(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ct, ok := a.(*CompoundTask); ok {
		other, ok := b.(*CompoundTask)
		return ok && ct == other
	}
	return false
}

func (g Ground) String() string {
	switch g.Kind {
	case GString:
		return g.Str
	case GNumber:
		return g.Num.String()
	case GBool:
		if g.Bit {
			return "true"
		}
		return "false"
	case GList:
		var b strings.Builder
		b.WriteByte('[')
		for c := g.List; c != nil; c = c.Tail {
			b.WriteString(c.Head.String())
			if c.Tail != nil {
				b.WriteByte(' ')
			}
		}
		b.WriteByte(']')
		return b.String()
	case GTaskRef:
		return g.Str
	case GTaskVal:
		return fmt.Sprintf("<task %v>", g.Task)
	default:
		return "<?>"
	}
}

// LocalVar is a logic variable. Slot >= 0 marks it as a method-pattern
// template: resolving it requires mapping Slot through the active
// MethodCallFrame to the fresh instance variable allocated for that call
// (see Env.Resolve). Slot == -1 marks a genuine free-standing instance,
// either the fresh variable a frame allocated for one of its slots, or an
// ad-hoc variable created outside any method pattern (combinator
// internals, CallFunction's result variable). Equality is by pointer
// identity, matching "equality on variables is by identity" (§3).
type LocalVar struct {
	Slot int
	Name string
}

func NewLocalVar(name string) *LocalVar { return &LocalVar{Slot: -1, Name: name} }

func (v *LocalVar) String() string {
	if v.Name != "" {
		return "?" + v.Name
	}
	return fmt.Sprintf("?_%p", v)
}

// Term is the closed sum of the four term shapes.
type Term struct {
	Kind  Kind
	G     Ground
	Var   *LocalVar
	State StateVar
	Elems []Term
}

func Str(s string) Term              { return Term{Kind: KindGround, G: Ground{Kind: GString, Str: s}} }
func Bool(b bool) Term               { return Term{Kind: KindGround, G: Ground{Kind: GBool, Bit: b}} }
func Num(d decimal.Decimal) Term     { return Term{Kind: KindGround, G: Ground{Kind: GNumber, Num: d}} }
func NumInt(i int64) Term            { return Num(decimal.NewFromInt(i)) }
func NumFloat(f float64) Term        { return Num(decimal.NewFromFloat(f)) }
func TaskRef(name string) Term       { return Term{Kind: KindGround, G: Ground{Kind: GTaskRef, Str: name}} }
func TaskVal(callable any) Term      { return Term{Kind: KindGround, G: Ground{Kind: GTaskVal, Task: callable}} }
func VarTerm(v *LocalVar) Term       { return Term{Kind: KindVar, Var: v} }
func StateTerm(sv StateVar) Term     { return Term{Kind: KindState, State: sv} }
func TupleTerm(elems ...Term) Term   { return Term{Kind: KindTuple, Elems: elems} }

// Nil is the empty list ground value.
func Nil() Term { return Term{Kind: KindGround, G: Ground{Kind: GList, List: nil}} }

// List builds a proper cons-list ground value out of items.
func List(items ...Term) Term {
	t := Nil()
	for i := len(items) - 1; i >= 0; i-- {
		t.G.List = &Cell{Head: items[i], Tail: t.G.List}
	}
	return t
}

func (t Term) IsVar() bool   { return t.Kind == KindVar }
func (t Term) IsGround() bool { return t.Kind == KindGround }
func (t Term) IsTuple() bool { return t.Kind == KindTuple }
func (t Term) IsState() bool { return t.Kind == KindState }

// Equal is structural equality used by Ground.Equal for nested lists and
// by tests; it does not dereference — callers wanting unification
// semantics should resolve terms first.
func (t Term) Equal(o Term) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindGround:
		return t.G.Equal(o.G)
	case KindVar:
		return t.Var == o.Var
	case KindState:
		return t.State == o.State
	case KindTuple:
		if len(t.Elems) != len(o.Elems) {
			return false
		}
		for i := range t.Elems {
			if !t.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (t Term) String() string {
	switch t.Kind {
	case KindGround:
		return t.G.String()
	case KindVar:
		return t.Var.String()
	case KindState:
		return t.State.String()
	case KindTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	default:
		return "<?>"
	}
}
