package reqid

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	ctx, id := NewContext(context.Background())
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, id, got)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	_, ok = FromContext(context.Background())
	require.False(t, ok, "unexpected id in empty context")
}

func TestWithID(t *testing.T) {
	const supplied = "6f1c1f2e-3b4a-4c5d-8e9f-0a1b2c3d4e5f"
	ctx, id := WithID(context.Background(), supplied)
	require.Equal(t, supplied, id)
	got, _ := FromContext(ctx)
	require.Equal(t, supplied, got)

	_, id = WithID(context.Background(), "not-a-uuid")
	require.NotEqual(t, "not-a-uuid", id)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
}
