package atomicx

import "sync/atomic"

// Bool is a concurrency-safe flag. The zero value is false.
type Bool struct {
	v atomic.Bool
}

func NewBool(val bool) *Bool {
	b := new(Bool)
	b.Set(val)
	return b
}

func (b *Bool) Set(val bool) {
	b.v.Store(val)
}

// T reports whether the flag is true.
func (b *Bool) T() bool {
	return b.v.Load()
}

// F reports whether the flag is false.
func (b *Bool) F() bool {
	return !b.v.Load()
}
