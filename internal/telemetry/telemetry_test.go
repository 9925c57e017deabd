package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupWithoutEndpointInstallsPropagators(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{ServiceName: "clinic-scheduler"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
}

func TestSetupRejectsInvalidSampleRatio(t *testing.T) {
	_, err := Setup(context.Background(), Config{
		ServiceName:  "clinic-scheduler",
		OTLPEndpoint: "localhost:4317",
		SampleRatio:  1.5,
	})
	assert.Error(t, err)
}
