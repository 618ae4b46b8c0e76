package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretNeverPrintsItsValue(t *testing.T) {
	s := NewSecret("hunter2")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", s))
	assert.NotContains(t, fmt.Sprintf("%+v", s), "hunter2")
}

func TestSecretExpose(t *testing.T) {
	s := NewSecret("hunter2")
	assert.Equal(t, "hunter2", s.Expose())
	assert.Equal(t, 7, s.Len())
}

func TestSecretZero(t *testing.T) {
	s := NewSecret("hunter2")
	s.Zero()
	assert.Empty(t, s.Expose())
	assert.Zero(t, s.Len())
}

func TestSecretJSON(t *testing.T) {
	out, err := json.Marshal(NewSecret("hunter2"))
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(out))

	var s Secret
	require.NoError(t, json.Unmarshal([]byte(`"hunter2"`), &s))
	assert.Equal(t, "hunter2", s.Expose())

	assert.Error(t, json.Unmarshal([]byte(`42`), &s))
}

func TestSecretLogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logger.Info("login", slog.Any("password", NewSecret("hunter2")))

	assert.Contains(t, buf.String(), "[REDACTED]")
	assert.NotContains(t, buf.String(), "hunter2")
}
