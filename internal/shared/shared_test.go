package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListLimit(t *testing.T) {
	require.Equal(t, 100, ListLimit(0, 100, 1000))
	require.Equal(t, 100, ListLimit(-5, 100, 1000))
	require.Equal(t, 50, ListLimit(50, 100, 1000))
	require.Equal(t, 1000, ListLimit(5000, 100, 1000))
}

func TestUserIDContext(t *testing.T) {
	ctx := context.Background()
	require.Empty(t, UserIDFromContext(ctx))
	ctx = ContextWithUserID(ctx, "farmer-1")
	require.Equal(t, "farmer-1", UserIDFromContext(ctx))
}

type messagedError struct{ msg string }

func (e *messagedError) Error() string       { return "internal detail" }
func (e *messagedError) UserMessage() string { return e.msg }

func TestUserSafeMessage(t *testing.T) {
	err := fmt.Errorf("wrap: %w", &messagedError{msg: "Not enough stock."})
	require.Equal(t, "Not enough stock.", UserSafeMessage(err))

	plain := errors.New("connection refused")
	require.NotContains(t, UserSafeMessage(plain), "refused")
}
