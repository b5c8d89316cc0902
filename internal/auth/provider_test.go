package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wanderlust-stays/wanderlust/internal/auth"
	"github.com/wanderlust-stays/wanderlust/internal/store/storetest"
)

func newProvider(t *testing.T) *auth.LocalProvider {
	t.Helper()
	p := auth.NewLocalProvider(storetest.NewSQLite(t))
	p.Cost = bcrypt.MinCost
	return p
}

func TestRegisterAndAuthenticate(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	u, err := p.Register(ctx, "  ana  ", "ana@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)
	assert.NotEqual(t, "hunter2", u.HashedPassword)

	got, err := p.Authenticate(ctx, "ana", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = p.Authenticate(ctx, "ana", "wrong")
	assert.ErrorIs(t, err, auth.ErrAuthFailure)

	_, err = p.Authenticate(ctx, "nobody", "hunter2")
	assert.ErrorIs(t, err, auth.ErrAuthFailure)
}

func TestRegisterRejectsDuplicatesAndBlanks(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	_, err := p.Register(ctx, "bo", "bo@example.com", "pw")
	require.NoError(t, err)

	_, err = p.Register(ctx, "bo", "other@example.com", "pw")
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)

	_, err = p.Register(ctx, "", "x@example.com", "pw")
	assert.ErrorIs(t, err, auth.ErrMissingFields)
	_, err = p.Register(ctx, "cy", "x@example.com", "")
	assert.ErrorIs(t, err, auth.ErrMissingFields)
}

func TestSerializeDeserialize(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	u, err := p.Register(ctx, "dee", "dee@example.com", "pw")
	require.NoError(t, err)

	got, err := p.Deserialize(ctx, p.Serialize(u))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "dee", got.Username)

	gone, err := p.Deserialize(ctx, "deleted-user-id")
	require.NoError(t, err)
	assert.Nil(t, gone)

	none, err := p.Deserialize(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestLoginLimiter(t *testing.T) {
	l := auth.NewLoginLimiter(0.001, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "attempt %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "limits are per client")

	l.Reset()
	assert.True(t, l.Allow("10.0.0.1"))
}
