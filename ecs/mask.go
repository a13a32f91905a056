package ecs

import (
	"strconv"
	"strings"

	"github.com/kelindar/bitmap"
)

// Mask is a growable bit-set where each bit denotes one registered component type.
// There is no upper bound on the number of bits; the backing words grow on demand.
type Mask struct {
	bits bitmap.Bitmap
}

// maskOf returns a mask with only the given bit set.
func maskOf(id uint64) Mask {
	var m Mask
	m.set(id)
	return m
}

// Has reports whether the bit for id is set.
func (m Mask) Has(id uint64) bool {
	return id <= maxTypeID && m.bits.Contains(uint32(id))
}

// ContainsAll reports whether every bit set in other is also set in m.
func (m Mask) ContainsAll(other Mask) bool {
	for i, w := range other.bits {
		if w == 0 {
			continue
		}
		if i >= len(m.bits) || m.bits[i]&w != w {
			return false
		}
	}
	return true
}

// ContainsAny reports whether m and other share at least one set bit.
func (m Mask) ContainsAny(other Mask) bool {
	n := min(len(m.bits), len(other.bits))
	for i := 0; i < n; i++ {
		if m.bits[i]&other.bits[i] != 0 {
			return true
		}
	}
	return false
}

// Count returns the number of set bits.
func (m Mask) Count() int {
	return m.bits.Count()
}

// IsEmpty reports whether no bit is set.
func (m Mask) IsEmpty() bool {
	for _, w := range m.bits {
		if w != 0 {
			return false
		}
	}
	return true
}

// IDs returns the set bits in ascending order.
func (m Mask) IDs() []uint64 {
	ids := make([]uint64, 0, m.Count())
	m.bits.Range(func(x uint32) {
		ids = append(ids, uint64(x))
	})
	return ids
}

// Equal reports whether both masks have exactly the same bits set.
// Trailing zero words are ignored.
func (m Mask) Equal(other Mask) bool {
	long, short := m.bits, other.bits
	if len(short) > len(long) {
		long, short = short, long
	}
	for i, w := range long {
		var o uint64
		if i < len(short) {
			o = short[i]
		}
		if w != o {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the mask.
func (m Mask) Clone() Mask {
	return Mask{bits: m.bits.Clone(nil)}
}

func (m Mask) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	m.bits.Range(func(x uint32) {
		if !first {
			sb.WriteByte(',')
		}
		first = false
		sb.WriteString(strconv.FormatUint(uint64(x), 10))
	})
	sb.WriteByte('}')
	return sb.String()
}

func (m *Mask) set(id uint64) {
	m.bits.Set(uint32(id))
}

func (m *Mask) remove(id uint64) {
	m.bits.Remove(uint32(id))
}

func (m *Mask) or(other Mask) {
	if n := len(other.bits) - len(m.bits); n > 0 {
		m.bits = append(m.bits, make([]uint64, n)...)
	}
	for i, w := range other.bits {
		m.bits[i] |= w
	}
}
