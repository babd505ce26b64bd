package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitTracerProviderWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := InitTracerProvider(context.Background(), "cart-test", "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
}
