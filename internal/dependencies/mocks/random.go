package mocks

import (
	"github.com/ic-ufrj/alumnic/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// It hands out bytes from a fixed sequence, repeating the last byte when
// the sequence runs out.
type MockRandom struct {
	Sequence []byte
	pos      int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a MockRandom serving the given byte sequence
func NewMockRandom(sequence ...byte) *MockRandom {
	return &MockRandom{Sequence: sequence}
}

// Bytes returns the next n bytes of the fixed sequence
func (r *MockRandom) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	for i := range b {
		if r.pos < len(r.Sequence) {
			b[i] = r.Sequence[r.pos]
			r.pos++
		} else if len(r.Sequence) > 0 {
			b[i] = r.Sequence[len(r.Sequence)-1]
		}
	}
	return b, nil
}
