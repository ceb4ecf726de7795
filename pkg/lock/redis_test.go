package lock

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pinToken(t *testing.T, token string) {
	t.Helper()
	orig := newToken
	newToken = func() string { return token }
	t.Cleanup(func() { newToken = orig })
}

func TestRedisLockerAcquireAndRelease(t *testing.T) {
	pinToken(t, "tok-1")

	client, mock := redismock.NewClientMock()
	mock.ExpectSetNX("payment:CIT-1", "tok-1", lockTTL).SetVal(true)
	mock.ExpectEvalSha(releaseScript.Hash(), []string{"payment:CIT-1"}, "tok-1").SetVal(int64(1))

	locker := NewRedisLocker(client)

	release, err := locker.Acquire(context.Background(), "payment:CIT-1")
	require.NoError(t, err)
	release()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLockerRetriesUntilFree(t *testing.T) {
	pinToken(t, "tok-2")

	client, mock := redismock.NewClientMock()
	mock.ExpectSetNX("payment:CIT-2", "tok-2", lockTTL).SetVal(false)
	mock.ExpectSetNX("payment:CIT-2", "tok-2", lockTTL).SetVal(true)
	mock.ExpectEvalSha(releaseScript.Hash(), []string{"payment:CIT-2"}, "tok-2").SetVal(int64(1))

	locker := NewRedisLocker(client)

	release, err := locker.Acquire(context.Background(), "payment:CIT-2")
	require.NoError(t, err)
	release()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLockerContextCancelledWhileWaiting(t *testing.T) {
	pinToken(t, "tok-3")

	client, mock := redismock.NewClientMock()
	// Key stays held by someone else
	mock.ExpectSetNX("payment:CIT-3", "tok-3", lockTTL).SetVal(false)
	mock.ExpectSetNX("payment:CIT-3", "tok-3", lockTTL).SetVal(false)
	mock.ExpectSetNX("payment:CIT-3", "tok-3", lockTTL).SetVal(false)

	locker := NewRedisLocker(client)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	_, err := locker.Acquire(ctx, "payment:CIT-3")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
