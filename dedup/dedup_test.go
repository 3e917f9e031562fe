package dedup

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolidDedup(t *testing.T) {
	d := NewSolidDedup()
	d.EnsureCapacity(16)

	_, ok := d.Find(0xABCD)
	assert.False(t, ok)

	want := SolidDetails{BlockIndex: 3, DecompressedBlockOffset: 4096}
	d.Insert(0xABCD, want)

	got, ok := d.Find(0xABCD)
	require.True(t, ok)
	assert.Equal(t, want, got)

	// Last writer wins.
	second := SolidDetails{BlockIndex: 7, DecompressedBlockOffset: 0}
	d.Insert(0xABCD, second)
	got, ok = d.Find(0xABCD)
	require.True(t, ok)
	assert.Equal(t, second, got)
}

func TestSolidDedupConcurrent(t *testing.T) {
	d := NewSolidDedup()
	d.EnsureCapacity(1000)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				hash := uint64(g*1000 + i)
				d.Insert(hash, SolidDetails{BlockIndex: uint32(g), DecompressedBlockOffset: uint32(i)})
				got, ok := d.Find(hash)
				assert.True(t, ok)
				assert.Equal(t, uint32(g), got.BlockIndex)
			}
		}(g)
	}
	wg.Wait()
}

func TestChunkedDedup(t *testing.T) {
	d := NewChunkedDedup()
	d.EnsureCapacity(16)

	assert.False(t, d.HasPrefix(0x11))
	_, ok := d.FindFull(0x22)
	assert.False(t, ok)

	d.Insert(0x11, 0x22, 42)

	assert.True(t, d.HasPrefix(0x11))
	idx, ok := d.FindFull(0x22)
	require.True(t, ok)
	assert.Equal(t, uint32(42), idx)

	// A different file sharing only the prefix hash does not collide on the
	// full map.
	_, ok = d.FindFull(0x33)
	assert.False(t, ok)
}
