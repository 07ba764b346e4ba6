package memory

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBits(t *testing.T) {
	t.Run("Untouched bits read zero and grow storage", func(t *testing.T) {
		m := New()
		assert.Equal(t, 0, m.Size())

		v, err := m.Load(9)
		require.NoError(t, err)
		assert.False(t, v)
		assert.Equal(t, 10, m.Size())
	})

	t.Run("Store and load", func(t *testing.T) {
		m := New()
		require.NoError(t, m.Store(3, true))
		assert.Equal(t, 4, m.Size())

		v, _ := m.Load(3)
		assert.True(t, v)

		require.NoError(t, m.Store(3, false))
		v, _ = m.Load(3)
		assert.False(t, v)
	})

	t.Run("Size never shrinks", func(t *testing.T) {
		m := New()
		_ = m.Store(20, true)
		_, _ = m.Load(2)
		_ = m.Store(5, false)
		assert.Equal(t, 21, m.Size())
	})

	t.Run("Negative index", func(t *testing.T) {
		m := New()
		_, err := m.Load(-1)
		assert.ErrorIs(t, err, ErrNegativeIndex)
		assert.ErrorIs(t, m.Store(-4, true), ErrNegativeIndex)
		assert.Equal(t, 0, m.Size())
	})

	t.Run("Limit", func(t *testing.T) {
		m := New(WithLimit(8))
		assert.NoError(t, m.Store(7, true))
		assert.ErrorIs(t, m.Store(8, true), ErrLimitExceeded)
		assert.ErrorIs(t, m.StoreUInt(6, 4, 1), ErrLimitExceeded)
		assert.Equal(t, 8, m.Size())
	})
}

func TestMemoryInts(t *testing.T) {
	t.Run("Little endian layout", func(t *testing.T) {
		m := New()
		require.NoError(t, m.StoreUInt(0, 3, 5))

		b0, _ := m.Load(0)
		b1, _ := m.Load(1)
		b2, _ := m.Load(2)
		assert.True(t, b0)
		assert.False(t, b1)
		assert.True(t, b2)
	})

	t.Run("Round trip", func(t *testing.T) {
		m := New()
		r := rand.New(rand.NewSource(3))
		for k := 0; k < 500; k++ {
			index := r.Intn(1000)
			size := r.Intn(MaxIntSize)
			var value int64
			if size > 0 {
				value = r.Int63n(int64(1) << size)
			}

			require.NoError(t, m.StoreUInt(index, size, value))
			got, err := m.LoadUInt(index, size)
			require.NoError(t, err)
			assert.Equal(t, uint64(value), got, "index %d size %d", index, size)
		}
	})

	t.Run("Overwrites neighbours only inside the range", func(t *testing.T) {
		m := New()
		require.NoError(t, m.StoreUInt(0, 8, 0xff))
		require.NoError(t, m.StoreUInt(2, 4, 0))

		v, _ := m.LoadUInt(0, 8)
		assert.Equal(t, uint64(0xc3), v)
	})

	t.Run("Value out of range", func(t *testing.T) {
		m := New()
		assert.ErrorIs(t, m.StoreUInt(0, 3, 8), ErrValueOutOfRange)
		assert.ErrorIs(t, m.StoreUInt(0, 3, -1), ErrValueOutOfRange)
		assert.ErrorIs(t, m.StoreUInt(0, 0, 1), ErrValueOutOfRange)
		assert.Equal(t, 0, m.Size())
	})

	t.Run("Invalid size", func(t *testing.T) {
		m := New()
		_, err := m.LoadUInt(0, 64)
		assert.ErrorIs(t, err, ErrInvalidSize)
		assert.ErrorIs(t, m.StoreUInt(0, -1, 0), ErrInvalidSize)
	})

	t.Run("Zero width", func(t *testing.T) {
		m := New()
		v, err := m.LoadUInt(10, 0)
		require.NoError(t, err)
		assert.Zero(t, v)
		assert.NoError(t, m.StoreUInt(10, 0, 0))
		assert.Equal(t, 0, m.Size())
	})

	t.Run("Load grows storage", func(t *testing.T) {
		m := New()
		_, err := m.LoadUInt(4, 7)
		require.NoError(t, err)
		assert.Equal(t, 11, m.Size())
	})
}
