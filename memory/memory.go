// Package memory implements the bit-addressable storage step-programs keep their state in.
//
// Bits are materialized lazily up to the highest index ever touched and read as 0 until
// written. Integers are stored little-endian: the least significant bit sits at the lowest
// index.
package memory

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// DefaultLimit caps the materialized size at 16 Mbit.
const DefaultLimit = 1 << 24

// MaxIntSize is the widest integer LoadUInt and StoreUInt accept.
const MaxIntSize = 63

var (
	ErrNegativeIndex   = errors.New("negative memory index")
	ErrInvalidSize     = errors.New("invalid integer size")
	ErrValueOutOfRange = errors.New("value does not fit in the requested bits")
	ErrLimitExceeded   = errors.New("memory limit exceeded")
)

// Memory is a growable bit sequence. It is not safe for concurrent use.
type Memory struct {
	bits  *bitset.BitSet
	size  int
	limit int
}

// Option configures a Memory.
type Option func(*Memory)

// WithLimit caps the number of bits that may be materialized. A limit <= 0 removes the cap.
func WithLimit(bits int) Option {
	return func(m *Memory) {
		m.limit = bits
	}
}

// New returns an empty memory.
func New(opts ...Option) *Memory {
	m := &Memory{
		bits:  bitset.New(0),
		limit: DefaultLimit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Size returns the number of materialized bits.
func (m *Memory) Size() int {
	return m.size
}

// grow materializes every bit up to and including index i.
func (m *Memory) grow(i int) error {
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeIndex, i)
	}
	if m.limit > 0 && i >= m.limit {
		return fmt.Errorf("%w: index %d, limit %d bits", ErrLimitExceeded, i, m.limit)
	}
	if i >= m.size {
		m.size = i + 1
	}
	return nil
}

// Load returns bit i.
func (m *Memory) Load(i int) (bool, error) {
	if err := m.grow(i); err != nil {
		return false, err
	}
	return m.bits.Test(uint(i)), nil
}

// Store sets bit i to v.
func (m *Memory) Store(i int, v bool) error {
	if err := m.grow(i); err != nil {
		return err
	}
	m.bits.SetTo(uint(i), v)
	return nil
}

func (m *Memory) checkRange(i, size int) error {
	if size < 0 || size > MaxIntSize {
		return fmt.Errorf("%w: %d not in [0,%d]", ErrInvalidSize, size, MaxIntSize)
	}
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeIndex, i)
	}
	if size == 0 {
		return nil
	}
	return m.grow(i + size - 1)
}

// LoadUInt reads the unsigned integer held in bits [i, i+size).
func (m *Memory) LoadUInt(i, size int) (uint64, error) {
	if err := m.checkRange(i, size); err != nil {
		return 0, err
	}

	var value uint64
	for b := 0; b < size; b++ {
		if m.bits.Test(uint(i + b)) {
			value |= 1 << b
		}
	}
	return value, nil
}

// StoreUInt writes value into bits [i, i+size). value must satisfy 0 <= value < 2^size.
func (m *Memory) StoreUInt(i, size int, value int64) error {
	if size < 0 || size > MaxIntSize {
		return fmt.Errorf("%w: %d not in [0,%d]", ErrInvalidSize, size, MaxIntSize)
	}
	if value < 0 || uint64(value) >= 1<<size {
		return fmt.Errorf("%w: %d in %d bits", ErrValueOutOfRange, value, size)
	}
	if err := m.checkRange(i, size); err != nil {
		return err
	}

	for b := 0; b < size; b++ {
		m.bits.SetTo(uint(i+b), value&(1<<b) != 0)
	}
	return nil
}
