package step

import "strings"

// Buffer is the output accumulator every step chain writes generated text
// into. Steps are responsible for truncating back to their entry
// watermark when the continuation they called ultimately fails — Buffer
// itself only exposes the primitives (Len, Append, Truncate, Difference)
// that make that convention cheap and correct; it does not enforce it.
type Buffer struct {
	tokens []string
}

func NewBuffer() *Buffer { return &Buffer{} }

// Len returns the current watermark — the value a step should save before
// appending anything and pass to Truncate if its continuation fails.
func (b *Buffer) Len() int { return len(b.tokens) }

func (b *Buffer) Append(toks ...string) { b.tokens = append(b.tokens, toks...) }

// Truncate resets the buffer back to a previously observed watermark.
func (b *Buffer) Truncate(mark int) { b.tokens = b.tokens[:mark] }

// Difference copies out everything appended since mark. It returns a copy,
// not a reslice of the live backing array: a combinator that captures a
// solution's output and keeps searching will cause further Append calls
// that reuse the same backing array, which would silently corrupt an
// aliased slice out from under the caller holding it. This is the one
// place correctness costs an allocation.
func (b *Buffer) Difference(mark int) []string {
	out := make([]string, len(b.tokens)-mark)
	copy(out, b.tokens[mark:])
	return out
}

// AppendSlice re-emits a previously captured Difference, used by
// combinators (§4.G) to replay the tokens of whichever solution they chose
// to keep once the rest of the search has been abandoned.
func (b *Buffer) AppendSlice(toks []string) { b.tokens = append(b.tokens, toks...) }

func (b *Buffer) Tokens() []string { return b.tokens }

func (b *Buffer) String() string { return strings.Join(b.tokens, "") }
