package model

import (
	"encoding/json"
	"log/slog"
)

const redacted = "[REDACTED]"

// Secret holds a plaintext credential in memory. It never leaks its value
// through printing, logging or JSON encoding; code that genuinely needs the
// plaintext must call Expose. Call Zero once the value is no longer needed.
type Secret struct {
	value []byte
}

// NewSecret wraps a plaintext value in a Secret.
func NewSecret(value string) Secret {
	return Secret{value: []byte(value)}
}

// Expose returns the plaintext value.
func (s *Secret) Expose() string {
	return string(s.value)
}

// Len returns the length of the plaintext in bytes.
func (s *Secret) Len() int {
	return len(s.value)
}

// Zero overwrites the secret's buffer. The Secret is empty afterwards.
func (s *Secret) Zero() {
	for i := range s.value {
		s.value[i] = 0
	}
	s.value = nil
}

// String implements fmt.Stringer, hiding the value.
func (s Secret) String() string {
	return redacted
}

// GoString hides the value from %#v as well.
func (s Secret) GoString() string {
	return redacted
}

// LogValue hides the value from slog output.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// MarshalJSON always encodes the redaction marker, never the value.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(redacted)
}

// UnmarshalJSON accepts a plain JSON string as the secret value.
func (s *Secret) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	s.value = []byte(v)
	return nil
}
