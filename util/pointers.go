package util

// ToPtr returns a pointer pointing to a.
// The returned pointer is never nil.
func ToPtr[T any](a T) *T {
	return &a
}

// NilIfEmpty returns nil if a is the zero value of T and a pointer to a otherwise.
func NilIfEmpty[T comparable](a T) *T {
	var zero T
	if a == zero {
		return nil
	}
	return &a
}

// ValueOr returns the value p points to or def if p is nil.
func ValueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
