package parse

import (
	"fmt"
	"strconv"

	"github.com/caelum-lang/stepweave/step"
)

// locals tracks the slot each local variable name has been assigned
// within one definition: the pattern introduces slots left to right, and
// a name first seen in the body gets the next free slot, matching "fresh
// logic variable per declared local slot" addressed positionally.
type locals struct {
	byName map[string]int
	names  []string
}

func newLocals() *locals { return &locals{byName: map[string]int{}} }

func (l *locals) slot(name string) int {
	if s, ok := l.byName[name]; ok {
		return s
	}
	s := len(l.names)
	l.byName[name] = s
	l.names = append(l.names, name)
	return s
}

// Build turns every top-level definition form into a step.Definition.
// `(initially ...)` forms come back separately as zero-arity Definitions
// of their own, under a synthetic task name — registering them as
// ordinary methods lets Method.Try allocate their local-variable frame
// the normal way, so an `initially` body can use `?vars` exactly like a
// method body can. The caller is expected to AddDefinitions them and
// then Call each one once, by name, at load time.
//
// Definition shape: (TaskName pat... -> @flag... bodyElem...)
func Build(forms []SExpr) (defs []step.Definition, initially []step.Definition, err error) {
	for _, form := range forms {
		if !form.IsList() || len(form.List) == 0 {
			return nil, nil, fmt.Errorf("line %d: expected a definition form", form.Line)
		}
		head := form.List[0]
		if !head.IsAtom() {
			return nil, nil, fmt.Errorf("line %d: definition must start with a task name", form.Line)
		}
		if head.Atom.Text == "initially" {
			l := newLocals()
			rest := form.List[1:]
			if len(rest) > 0 && rest[0].IsAtom() && rest[0].Atom.Kind == TokArrow {
				rest = rest[1:]
			}
			_, body, err := splitArrow(rest, l)
			if err != nil {
				return nil, nil, err
			}
			initially = append(initially, step.Definition{
				TaskName:   fmt.Sprintf("$initially$%d", len(initially)),
				Body:       body,
				LocalNames: l.names,
			})
			continue
		}

		arrowIdx := -1
		for i, e := range form.List {
			if e.IsAtom() && e.Atom.Kind == TokArrow {
				arrowIdx = i
				break
			}
		}
		if arrowIdx < 0 {
			return nil, nil, fmt.Errorf("line %d: definition missing ->", form.Line)
		}

		l := newLocals()
		patternForms := form.List[1:arrowIdx]
		pattern := make([]step.Term, len(patternForms))
		for i, pf := range patternForms {
			pattern[i] = buildTerm(pf, l)
		}

		flags, body, err := splitArrow(form.List[arrowIdx+1:], l)
		if err != nil {
			return nil, nil, err
		}

		defs = append(defs, step.Definition{
			TaskName:   head.Atom.Text,
			Pattern:    pattern,
			Body:       body,
			LocalNames: l.names,
			Flags:      flags,
		})
	}
	return defs, initially, nil
}

// splitArrow peels any leading @flag atoms off elems before building the
// remaining body chain.
func splitArrow(elems []SExpr, l *locals) (step.Flags, step.Step, error) {
	var flags step.Flags
	i := 0
	for i < len(elems) {
		e := elems[i]
		if e.IsAtom() && e.Atom.Kind == TokSymbol && len(e.Atom.Text) > 0 && e.Atom.Text[0] == '@' {
			switch e.Atom.Text {
			case "@shuffle":
				flags |= step.FlagShuffle
			case "@multi":
				flags |= step.FlagMultipleSolutions
			case "@fallible":
				flags |= step.FlagFallible
			case "@main":
				flags |= step.FlagMain
			default:
				return 0, nil, fmt.Errorf("line %d: unknown flag %s", e.Line, e.Atom.Text)
			}
			i++
			continue
		}
		break
	}
	body, err := buildBody(elems[i:], l)
	return flags, body, err
}

func buildBody(elems []SExpr, l *locals) (step.Step, error) {
	var head step.Step
	for i := len(elems) - 1; i >= 0; i-- {
		s, err := buildBodyElem(elems[i], l, head)
		if err != nil {
			return nil, err
		}
		head = s
	}
	return head, nil
}

func buildBodyElem(e SExpr, l *locals, next step.Step) (step.Step, error) {
	if e.IsAtom() {
		switch e.Atom.Kind {
		case TokString:
			return &step.EmitStep{Tokens: []string{e.Atom.Text}, Next: next}, nil
		case TokVar:
			v := &step.LocalVar{Slot: l.slot(e.Atom.Text), Name: e.Atom.Text}
			return &step.EmitTermStep{Term: step.VarTerm(v), Next: next}, nil
		default:
			return &step.EmitStep{Tokens: []string{e.Atom.Text}, Next: next}, nil
		}
	}

	if len(e.List) == 0 {
		return next, nil
	}
	head := e.List[0]
	if !head.IsAtom() {
		return nil, fmt.Errorf("line %d: call must start with a task name", e.Line)
	}

	switch head.Atom.Text {
	case ":=":
		if len(e.List) != 3 {
			return nil, fmt.Errorf("line %d: := takes a name and a value", e.Line)
		}
		name, ok := atomText(e.List[1])
		if !ok {
			return nil, fmt.Errorf("line %d: := name must be a bare symbol", e.Line)
		}
		val := buildTerm(e.List[2], l)
		return &step.StateBindStep{SV: step.InternStateVar(name), Value: val, Next: next}, nil

	case "bind":
		if len(e.List) != 3 {
			return nil, fmt.Errorf("line %d: bind takes two terms", e.Line)
		}
		return &step.BindStep{A: buildTerm(e.List[1], l), B: buildTerm(e.List[2], l), Next: next}, nil

	case "doall", "once", "exactlyonce":
		kind := map[string]step.CombinatorKind{
			"doall":       step.CombDoAll,
			"once":        step.CombOnce,
			"exactlyonce": step.CombExactlyOnce,
		}[head.Atom.Text]
		body, err := buildBody(e.List[1:], l)
		if err != nil {
			return nil, err
		}
		return &step.HigherOrderStep{Kind: kind, Body: body, Next: next}, nil

	case "max", "min":
		if len(e.List) < 2 {
			return nil, fmt.Errorf("line %d: %s needs a score variable", e.Line, head.Atom.Text)
		}
		score := buildTerm(e.List[1], l)
		body, err := buildBody(e.List[2:], l)
		if err != nil {
			return nil, err
		}
		kind := step.CombMax
		if head.Atom.Text == "min" {
			kind = step.CombMin
		}
		return &step.HigherOrderStep{Kind: kind, Body: body, Score: score, Next: next}, nil

	default:
		args := make([]step.Term, len(e.List)-1)
		for i, a := range e.List[1:] {
			args[i] = buildTerm(a, l)
		}
		return &step.CallStep{Task: step.TaskRef(head.Atom.Text), Args: args, Next: next}, nil
	}
}

func atomText(e SExpr) (string, bool) {
	if !e.IsAtom() {
		return "", false
	}
	return e.Atom.Text, true
}

// buildTerm builds a Term for an argument or pattern position: literals
// become ground values, ?name becomes a pattern-slot variable, and a
// nested list becomes a tuple (a parenthesized call in argument position
// is not meaningful and is treated as a tuple of its own elements).
func buildTerm(e SExpr, l *locals) step.Term {
	if e.IsAtom() {
		switch e.Atom.Kind {
		case TokString:
			return step.Str(e.Atom.Text)
		case TokNumber:
			f, _ := strconv.ParseFloat(e.Atom.Text, 64)
			return step.NumFloat(f)
		case TokBool:
			return step.Bool(e.Atom.Text == "true")
		case TokVar:
			v := &step.LocalVar{Slot: l.slot(e.Atom.Text), Name: e.Atom.Text}
			return step.VarTerm(v)
		default:
			return step.TaskRef(e.Atom.Text)
		}
	}
	elems := make([]step.Term, len(e.List))
	for i, sub := range e.List {
		elems[i] = buildTerm(sub, l)
	}
	return step.TupleTerm(elems...)
}
