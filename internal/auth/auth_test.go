package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticValidator(t *testing.T) {
	t.Parallel()

	v := NewStaticValidator(map[string]string{
		"tok-alice": "alice",
		"tok-bob":   "bob",
	})

	identity, err := v.Validate(context.Background(), "tok-alice")
	require.NoError(t, err)
	require.NotNil(t, identity)
	require.Equal(t, "alice", identity.Account)

	identity, err = v.Validate(context.Background(), "nope")
	require.ErrorIs(t, err, ErrInvalidToken)
	require.Nil(t, identity)

	identity, err = v.Validate(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidToken, "empty token must never authenticate")
	require.Nil(t, identity)
}

func TestStaticValidatorCopiesTable(t *testing.T) {
	t.Parallel()

	table := map[string]string{"tok": "alice"}
	v := NewStaticValidator(table)

	// Mutating the caller's map must not affect the validator
	table["tok"] = "mallory"

	identity, err := v.Validate(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, "alice", identity.Account)
}

func TestNoopValidator(t *testing.T) {
	t.Parallel()

	v := NewNoopValidator()

	identity, err := v.Validate(context.Background(), "anything")
	require.NoError(t, err)
	require.Nil(t, identity, "noop validator signals disabled auth with nil identity")
}
