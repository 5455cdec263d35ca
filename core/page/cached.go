package page

// cached holds a lazily computed value. The zero value is absent.
type cached[T any] struct {
	value T
	ok    bool
}

func (c *cached[T]) get() (T, bool) {
	return c.value, c.ok
}

func (c *cached[T]) set(v T) {
	c.value = v
	c.ok = true
}

func (c *cached[T]) reset() {
	var zero T
	c.value = zero
	c.ok = false
}
