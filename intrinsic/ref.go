package intrinsic

// Ref is a mutable box for a scalar argument the callee writes to,
// i.e. a scalar declared INTENT(OUT) or INTENT(INOUT). The caller observes
// the final value through V after the call returns.
type Ref[T any] struct {
	V T
}

// NewRef returns a box holding v.
func NewRef[T any](v T) *Ref[T] {
	return &Ref[T]{V: v}
}

// Get returns the boxed value.
func (r *Ref[T]) Get() T { return r.V }

// Set replaces the boxed value.
func (r *Ref[T]) Set(v T) { r.V = v }
