package step

import "fmt"

// NonLocalExit is the control-flow signal a higher-order combinator raises
// to unwind out of a step chain it is driving, without being caught as an
// ordinary failure by an enclosing BranchStep or Method.Try. It is caught
// only by the combinator that raised it (matched by Tag), so nested
// combinators never see each other's exits.
type NonLocalExit struct {
	Tag     any
	Payload any
}

func (e *NonLocalExit) Error() string { return "step: non-local exit" }

// SyntaxError is raised by the external lexer/parser front end; this
// package only defines the shape so loader and parse can report it
// uniformly.
type SyntaxError struct {
	Path    string
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: syntax error: %s", e.Path, e.Line, e.Message)
}

// UndefinedVariableError is raised when a state-variable lookup falls
// through the dynamic state, the module's own dictionary, its parent
// chain, and every bind hook without finding a value.
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("step: undefined variable %q", e.Name)
}

// ArgumentCountError is raised when a call supplies a different number of
// arguments than a task's declared arity.
type ArgumentCountError struct {
	Task string
	Want int
	Got  int
}

func (e *ArgumentCountError) Error() string {
	return fmt.Sprintf("step: %s expects %d argument(s), got %d", e.Task, e.Want, e.Got)
}

// ArgumentTypeError is raised by a primitive when an argument resolves to
// a term of the wrong shape for what it needs.
type ArgumentTypeError struct {
	Task string
	Pos  int
	Want string
	Got  Term
}

func (e *ArgumentTypeError) Error() string {
	return fmt.Sprintf("step: %s argument %d: expected %s, got %s", e.Task, e.Pos, e.Want, e.Got.String())
}

// ArgumentInstantiationError is raised by a primitive that needs an
// argument to already be ground (fully resolved, no unbound variable
// anywhere inside it) but received one that isn't.
type ArgumentInstantiationError struct {
	Task string
	Pos  int
}

func (e *ArgumentInstantiationError) Error() string {
	return fmt.Sprintf("step: %s argument %d is insufficiently instantiated", e.Task, e.Pos)
}

// CallFailedError is raised when a must-succeed task (one without the
// Fallible flag) exhausts every method without any of them reaching their
// body's end. It carries the frame chain active at the moment of failure
// so a caller can print a step-language stack trace, mirroring the
// teacher's own panic-with-source-location pattern.
type CallFailedError struct {
	Task   string
	Args   []Term
	Frames []*MethodCallFrame
}

func (e *CallFailedError) Error() string {
	return fmt.Sprintf("step: call to %s failed with no method succeeding", e.Task)
}

func newCallFailed(task string, args []Term, frame *MethodCallFrame) *CallFailedError {
	var frames []*MethodCallFrame
	if frame != nil {
		frames = frame.Stack()
	}
	return &CallFailedError{Task: task, Args: args, Frames: frames}
}
