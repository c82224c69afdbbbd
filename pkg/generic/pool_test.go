package generic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolGenerates(t *testing.T) {
	p := NewPool(func() []int {
		return make([]int, 0, 4)
	})
	s := p.Get()
	assert.Equal(t, 4, cap(s))
	assert.GreaterOrEqual(t, p.Allocated(), int64(1))
}

func TestResetPoolClearsOnPut(t *testing.T) {
	p := NewResetPool(
		func() map[int]string { return make(map[int]string) },
		func(m map[int]string) map[int]string {
			clear(m)
			return m
		},
	)
	m := p.Get()
	m[1] = "one"
	p.Put(m)

	// sync.Pool may or may not hand back the same map; either way it is empty.
	assert.Empty(t, p.Get())
	assert.LessOrEqual(t, p.Allocated(), int64(2))
}
