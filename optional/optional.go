// Package optional implements a value which may or may not be set.
package optional

// Optional holds a value of type T together with a flag which tells whether
// the value has been set at all. The zero Optional is empty.
type Optional[T any] struct {
	value T
	set   bool
}

// Set stores v and marks the optional as having a value.
func (o *Optional[T]) Set(v T) {
	o.value = v
	o.set = true
}

// Get returns the stored value. It returns the zero value of T when the
// optional is empty.
func (o Optional[T]) Get() T {
	return o.value
}

// HasValue returns true if Set has been called since creation or the last Reset.
func (o Optional[T]) HasValue() bool {
	return o.set
}

// Reset empties the optional.
func (o *Optional[T]) Reset() {
	var zero T
	o.value = zero
	o.set = false
}
