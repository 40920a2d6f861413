package shared

// Optional distinguishes "not provided" from a zero value in patch requests
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some wraps a provided value
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// None returns an absent value
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it was provided
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}
