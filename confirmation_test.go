package yamdb_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-yamdb"
)

func TestConfirmationCodes_RoundTrip(t *testing.T) {
	codes, err := yamdb.NewConfirmationCodes("secret", "salt", time.Hour)
	require.NoError(t, err)

	user := &yamdb.User{ID: uuid.New(), Username: "alice", Email: "a@x.io"}
	require.NoError(t, codes.Rotate(user))

	code, err := codes.Issue(user)
	require.NoError(t, err)
	assert.Len(t, code, 40)

	again, err := codes.Issue(user)
	require.NoError(t, err)
	assert.Equal(t, code, again)

	assert.True(t, codes.Verify(user, code))
	assert.False(t, codes.Verify(user, ""))
	assert.False(t, codes.Verify(user, "not-hex"))
	assert.False(t, codes.Verify(user, tamper(code)))
}

func TestConfirmationCodes_RotateInvalidates(t *testing.T) {
	codes, err := yamdb.NewConfirmationCodes("secret", "salt", 0)
	require.NoError(t, err)

	user := &yamdb.User{ID: uuid.New(), Username: "alice", Email: "a@x.io"}
	require.NoError(t, codes.Rotate(user))
	old, err := codes.Issue(user)
	require.NoError(t, err)

	require.NoError(t, codes.Rotate(user))
	assert.False(t, codes.Verify(user, old))

	fresh, err := codes.Issue(user)
	require.NoError(t, err)
	assert.True(t, codes.Verify(user, fresh))
}

func TestConfirmationCodes_FingerprintChanges(t *testing.T) {
	codes, err := yamdb.NewConfirmationCodes("secret", "salt", 0)
	require.NoError(t, err)

	user := &yamdb.User{ID: uuid.New(), Username: "alice", Email: "a@x.io"}
	require.NoError(t, codes.Rotate(user))
	code, err := codes.Issue(user)
	require.NoError(t, err)

	user.Email = "b@x.io"
	assert.False(t, codes.Verify(user, code))

	other, err := yamdb.NewConfirmationCodes("another secret", "salt", 0)
	require.NoError(t, err)
	user.Email = "a@x.io"
	assert.False(t, other.Verify(user, code))
}

func TestConfirmationCodes_TTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	codes, err := yamdb.NewConfirmationCodes("secret", "salt", time.Hour, yamdb.WithCodesClock(clock))
	require.NoError(t, err)

	user := &yamdb.User{ID: uuid.New(), Username: "alice", Email: "a@x.io"}
	require.NoError(t, codes.Rotate(user))
	code, err := codes.Issue(user)
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	assert.True(t, codes.Verify(user, code))

	now = now.Add(2 * time.Minute)
	assert.False(t, codes.Verify(user, code))
}

func TestConfirmationCodes_Errors(t *testing.T) {
	_, err := yamdb.NewConfirmationCodes("", "salt", 0)
	assert.Error(t, err)

	codes, err := yamdb.NewConfirmationCodes("secret", "salt", 0,
		yamdb.WithCodesRandom(bytes.NewReader(nil)))
	require.NoError(t, err)

	user := &yamdb.User{ID: uuid.New()}
	assert.Error(t, codes.Rotate(user))
	assert.Error(t, codes.Rotate(nil))

	_, err = codes.Issue(user)
	assert.Error(t, err, "no fingerprint yet")
	assert.False(t, codes.Verify(nil, "abc"))
}

// tamper flips the last hex digit of code.
func tamper(code string) string {
	last := byte('0')
	if code[len(code)-1] == '0' {
		last = '1'
	}
	return code[:len(code)-1] + string(last)
}
