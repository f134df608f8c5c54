package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/sasarrow/pkg/pool"
)

func TestTypedPoolReusesObjects(t *testing.T) {
	type rowBuf struct{ data []byte }

	var resets int
	p := pool.New(
		func() *rowBuf { return &rowBuf{data: make([]byte, 0, 64)} },
		func(b *rowBuf) {
			b.data = b.data[:0]
			resets++
		},
	)

	b := p.Get()
	b.data = append(b.data, 1, 2, 3)
	p.Put(b)

	assert.Equal(t, 1, resets)

	b2 := p.Get()
	assert.Empty(t, b2.data)
	p.Put(b2)

	allocated, inUse, hits := p.Stats()
	assert.GreaterOrEqual(t, allocated, int64(1))
	assert.Equal(t, int64(0), inUse)
	assert.Equal(t, int64(2), hits)
}

func TestByteSliceGrowsToRequestedSize(t *testing.T) {
	b := pool.GetByteSlice(16)
	assert.Len(t, b, 16)
	pool.PutByteSlice(b)

	big := pool.GetByteSlice(4096)
	assert.Len(t, big, 4096)
	pool.PutByteSlice(big)
}
