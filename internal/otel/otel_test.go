package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitTracer_NoEndpoint(t *testing.T) {
	shutdown := InitTracer("")
	assert.NotNil(t, shutdown)
	assert.NotPanics(t, shutdown)
}

func TestStartSpan_NoopProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test", "ticker", "SPY", "dangling")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() {
		RecordError(ctx, errors.New("boom"))
		RecordError(ctx, nil)
	})
}
