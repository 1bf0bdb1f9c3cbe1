package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	p, err := Init(ctx, Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, p.Logger)

	assert.Same(t, p.tracerProvider, otel.GetTracerProvider())
	assert.Same(t, p.meterProvider, otel.GetMeterProvider())

	require.NoError(t, p.Shutdown(ctx))
}

func TestConfig_ServiceName(t *testing.T) {
	assert.Equal(t, DefaultServiceName, Config{}.serviceName())
	assert.Equal(t, "custom", Config{ServiceName: "custom"}.serviceName())
}

func TestNewResource_IncludesServiceName(t *testing.T) {
	res, err := newResource(context.Background(), "dbsettings-test")
	require.NoError(t, err)

	var found bool
	for _, kv := range res.Attributes() {
		if kv.Key == "service.name" {
			found = true
			// OTEL_SERVICE_NAME, when set, overrides the attribute
			assert.NotEmpty(t, kv.Value.AsString())
		}
	}
	assert.True(t, found)
}
