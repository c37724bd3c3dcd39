// Package alloc owns every heap-resident composite value the VM creates:
// vectors, record instances, and variant payloads.
//
// Sharing is modeled as a pointer to a small generic wrapper: a
// *Handle[T] copied between operand-stack slots and locals is an alias
// to the same T, and a mutation through any alias is visible through
// all of them. There is no explicit free. A Handle lives as long as
// something reachable still holds it, and the allocator itself never
// walks or collects its output; Go's garbage collector does that for
// free.
package alloc

// Handle is a shared, interior-mutable reference to a heap-resident value
// of type T. Copying a *Handle[T] copies the reference, not the payload.
type Handle[T any] struct {
	v T
}

// Get returns the current payload.
func (h *Handle[T]) Get() T {
	return h.v
}

// Set replaces the payload. Every alias of h observes the new value.
func (h *Handle[T]) Set(v T) {
	h.v = v
}

// Allocator is the single point through which composite values are
// created. None is represented inline (see pkg/value) and never passes
// through here. Allocator carries no state of its own today, but keeping
// it as a distinct type rather than calling a bare package-level
// function leaves room for an arena or allocation-count metric later
// without changing every call site.
type Allocator struct{}

// New creates an allocator. A VM owns exactly one for its lifetime.
func New() *Allocator {
	return &Allocator{}
}

// Allocate wraps v in a fresh handle. Go generics don't allow a type
// parameter on a method, so this is a free function taking the allocator
// for symmetry with the rest of the VM's collaborator-threading style (and
// so call sites read as "ask the allocator", matching the original's
// alloc.alloc_ref(value)).
func Allocate[T any](a *Allocator, v T) *Handle[T] {
	return &Handle[T]{v: v}
}
