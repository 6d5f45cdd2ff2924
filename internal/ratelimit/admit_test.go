package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdmitRejectsWithoutMutatingAnyCounter(t *testing.T) {
	l := newLimiter(Limits{RPM: 1, TPM: 1000, RPD: 1})
	first := l.Admit(100)
	require.True(t, first.Allowed)

	second := l.Admit(100)
	require.False(t, second.Allowed)
	require.Greater(t, second.RetryAfterSeconds, 0.0)

	// RPM was exhausted by the first admit; a retry must still report RPD
	// and TPM untouched (no negative counters, no silent partial consume).
	third := l.Admit(100)
	require.False(t, third.Allowed)
	require.Equal(t, int64(900), third.TPM.Remaining)
	require.Equal(t, int64(0), third.RPD.Remaining)
}

func TestAdmitRejectionReportsNonZeroLimitsOnEachAxis(t *testing.T) {
	l := newLimiter(Limits{RPM: 1, TPM: 1000, RPD: 10})
	first := l.Admit(100)
	require.True(t, first.Allowed)

	rejected := l.Admit(100)
	require.False(t, rejected.Allowed)

	// The exhausted axis (RPM) reports its limit and zero remaining; the
	// untouched axes (TPM, RPD) still report their live headroom rather
	// than a zero-valued Result.
	require.Equal(t, int64(1), rejected.RPM.Limit)
	require.Equal(t, int64(0), rejected.RPM.Remaining)
	require.Equal(t, int64(1000), rejected.TPM.Limit)
	require.Equal(t, int64(900), rejected.TPM.Remaining)
	require.Equal(t, int64(10), rejected.RPD.Limit)
	require.Equal(t, int64(9), rejected.RPD.Remaining)
}

func TestAdmitDecrementsAllThreeAxesTogether(t *testing.T) {
	l := newLimiter(Limits{RPM: 10, TPM: 1000, RPD: 10})
	res := l.Admit(100)
	require.True(t, res.Allowed)
	require.Equal(t, int64(9), res.RPM.Remaining)
	require.Equal(t, int64(900), res.TPM.Remaining)
	require.Equal(t, int64(9), res.RPD.Remaining)
}

func TestTierLimitsMatchPublishedTable(t *testing.T) {
	require.Equal(t, Limits{RPM: 3, TPM: 40_000, RPD: 200}, TierLimits[TierFree])
	require.Equal(t, Limits{RPM: 10_000, TPM: 10_000_000, RPD: 100_000}, TierLimits[TierFive])
}

func TestAbuseDetectorFlagsBurst(t *testing.T) {
	var flagged string
	d := NewAbuseDetector(func(apiKey string) { flagged = apiKey })
	for i := 0; i < 20; i++ {
		d.RecordCall("sk-test", "/v1/chat/completions", 3)
	}
	require.Equal(t, "sk-test", flagged)
}

func TestAbuseDetectorSustainedViolations(t *testing.T) {
	d := NewAbuseDetector(nil)
	require.False(t, d.SustainedViolations("sk-test"))
	for i := 0; i < violationsToFlag; i++ {
		d.RecordViolation("sk-test")
	}
	require.True(t, d.SustainedViolations("sk-test"))
}
