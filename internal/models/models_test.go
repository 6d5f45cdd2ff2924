package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetKnownModel(t *testing.T) {
	r := NewRegistry()
	d := r.Get("gpt-4")
	require.Equal(t, 8192, d.ContextWindow)
}

func TestGetUnknownModelAutoRegistersWithDefaults(t *testing.T) {
	r := NewRegistry()
	d := r.Get("some-custom-model")
	require.Equal(t, DefaultContextWindow, d.ContextWindow)
	require.Equal(t, "some-custom-model", d.ID)

	// Second lookup reuses the auto-registered descriptor (same family row).
	d2 := r.Get("some-custom-model")
	require.Equal(t, d.ContextWindow, d2.ContextWindow)
}

func TestFineTunedResolvesToBase(t *testing.T) {
	r := NewRegistry()
	d := r.Get("ft:gpt-4:my-org::abc123")
	require.Equal(t, 8192, d.ContextWindow)
	require.Equal(t, "ft:gpt-4:my-org::abc123", d.ID)
}

func TestListReturnsCopies(t *testing.T) {
	r := NewRegistry()
	list := r.List()
	require.NotEmpty(t, list)
}
