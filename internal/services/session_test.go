package services

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_Redis(t *testing.T) {
	mr, client := newTestRedis(t)
	sessions := NewSessionService(client, nil)
	ctx := context.Background()

	token, err := sessions.CreateSession(ctx, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, mr.Exists(SessionKeyPrefix+token))
	assert.Equal(t, SessionDuration, mr.TTL(SessionKeyPrefix+token))

	username, ok, err := sessions.ValidateSession(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", username)

	_, ok, err = sessions.ValidateSession(ctx, "bogus")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = sessions.ValidateSession(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionService_RedisLoginReplacesSession(t *testing.T) {
	_, client := newTestRedis(t)
	sessions := NewSessionService(client, nil)
	ctx := context.Background()

	first, err := sessions.CreateSession(ctx, "alice")
	require.NoError(t, err)
	second, err := sessions.CreateSession(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, ok, err := sessions.ValidateSession(ctx, first)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = sessions.ValidateSession(ctx, second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSessionService_RedisInvalidate(t *testing.T) {
	mr, client := newTestRedis(t)
	sessions := NewSessionService(client, nil)
	ctx := context.Background()

	token, err := sessions.CreateSession(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, sessions.InvalidateSession(ctx, token))

	_, ok, err := sessions.ValidateSession(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(UserSessionKeyPrefix+"alice"))

	token, err = sessions.CreateSession(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, sessions.InvalidateUserSessions(ctx, "alice"))
	_, ok, err = sessions.ValidateSession(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionService_RedisExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	sessions := NewSessionService(client, nil)
	ctx := context.Background()

	token, err := sessions.CreateSession(ctx, "alice")
	require.NoError(t, err)
	mr.FastForward(SessionDuration + time.Second)

	_, ok, err := sessions.ValidateSession(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionService_Memory(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sessions := NewSessionService(nil, clock)
	ctx := context.Background()

	first, err := sessions.CreateSession(ctx, "alice")
	require.NoError(t, err)
	username, ok, err := sessions.ValidateSession(ctx, first)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", username)

	second, err := sessions.CreateSession(ctx, "alice")
	require.NoError(t, err)
	_, ok, _ = sessions.ValidateSession(ctx, first)
	assert.False(t, ok)

	clock.Advance(SessionDuration)
	_, ok, _ = sessions.ValidateSession(ctx, second)
	assert.False(t, ok)
}

func TestSessionService_MemoryInvalidate(t *testing.T) {
	sessions := NewSessionService(nil, clockwork.NewFakeClock())
	ctx := context.Background()

	token, err := sessions.CreateSession(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, sessions.InvalidateSession(ctx, token))
	_, ok, _ := sessions.ValidateSession(ctx, token)
	assert.False(t, ok)

	token, err = sessions.CreateSession(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, sessions.InvalidateUserSessions(ctx, "bob"))
	_, ok, _ = sessions.ValidateSession(ctx, token)
	assert.False(t, ok)
}
