package chatcore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fakeai-dev/fakeai/internal/fakeai"
)

func TestValidateContextWithinBudgetPasses(t *testing.T) {
	require.NoError(t, ValidateContext(8192, 100, 50))
}

func TestValidateContextOverBudgetFails(t *testing.T) {
	err := ValidateContext(8192, 7000, 200000)
	require.Error(t, err)
	require.ErrorIs(t, err, fakeai.ErrContextOverflow)
	require.Contains(t, err.Error(), "8192")
	require.Contains(t, err.Error(), "207000")
}

func TestValidateContextZeroMaxTokensAlwaysPasses(t *testing.T) {
	require.NoError(t, ValidateContext(10, 1_000_000, 0))
}
