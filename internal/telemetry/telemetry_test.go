package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProvider_ShutdownFlushesAll(t *testing.T) {
	var called []string
	boom := errors.New("collector unavailable")

	p := &Provider{flushers: []flusher{
		{name: "trace", shutdown: func(context.Context) error { called = append(called, "trace"); return boom }},
		{name: "metric", shutdown: func(context.Context) error { called = append(called, "metric"); return nil }},
	}}

	err := p.Shutdown(context.Background())
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "trace shutdown")
	require.Equal(t, []string{"trace", "metric"}, called)
}

func TestProvider_ShutdownEmpty(t *testing.T) {
	require.NoError(t, (&Provider{}).Shutdown(context.Background()))
}
