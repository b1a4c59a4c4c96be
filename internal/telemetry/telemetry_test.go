package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfig_sampler(t *testing.T) {
	tests := []struct {
		ratio    float64
		contains string
	}{
		{ratio: 0, contains: "AlwaysOnSampler"},
		{ratio: 1, contains: "AlwaysOnSampler"},
		{ratio: 0.25, contains: "TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		s := Config{SampleRatio: tt.ratio}.sampler()
		require.Contains(t, s.Description(), tt.contains)
	}
}

func TestGetMetrics(t *testing.T) {
	m := GetMetrics()
	require.NotNil(t, m)
	require.Same(t, m, GetMetrics())
	require.NotNil(t, m.PagesRenderedTotal)
	require.NotNil(t, m.SectionsSkippedTotal)
	require.NotNil(t, m.TenantNotFoundTotal)
}
