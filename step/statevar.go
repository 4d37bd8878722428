package step

import "sync"

// StateVar is an interned handle for a state-variable name: module-global,
// persistent across calls, shared by every module that refers to the same
// name. Interning gives two StateVars built from equal names the same
// identity, so a StateVar is comparable and usable as a Chain key directly.
type StateVar struct {
	id   uint64
	name string
}

func (s StateVar) String() string { return s.name }

// Name returns the interned name; StateVar's zero value has an empty name
// and id 0, which InternStateVar never hands out (the counter starts at 1),
// so a zero StateVar is reliably "no state variable".
func (s StateVar) Name() string { return s.name }

func (s StateVar) IsZero() bool { return s.id == 0 }

var internMu sync.Mutex
var internTable = map[string]StateVar{}
var internCounter uint64

// InternStateVar returns the process-wide StateVar for name, allocating one
// on first use. Every module sees the same identity for the same name,
// matching "state variables ... are interned ... shared across every
// module that references that name" (§3).
func InternStateVar(name string) StateVar {
	internMu.Lock()
	defer internMu.Unlock()
	if v, ok := internTable[name]; ok {
		return v
	}
	internCounter++
	v := StateVar{id: internCounter, name: name}
	internTable[name] = v
	return v
}
