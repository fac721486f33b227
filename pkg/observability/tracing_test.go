package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{Enabled: false})

	assert.NoError(t, err)
	if assert.NotNil(t, shutdown) {
		assert.NoError(t, shutdown(context.Background()))
	}
}

func TestTracerNeverNil(t *testing.T) {
	assert.NotNil(t, Tracer("atlas-test"))
}
