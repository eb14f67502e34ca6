package yamdb_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-yamdb"
)

func TestRegistrationStates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var recorded []yamdb.ActivityEvent
	states := yamdb.NewRegistrationStates(env.repo.Users(),
		yamdb.WithRegistrationLogger(nopLogger{}),
		yamdb.WithRegistrationActivitySink(yamdb.ActivitySinkFunc(func(_ context.Context, ev yamdb.ActivityEvent) error {
			recorded = append(recorded, ev)
			return nil
		})),
	)

	assert.True(t, states.CanTransition(yamdb.UserStatusPending, yamdb.UserStatusActive))
	assert.False(t, states.CanTransition(yamdb.UserStatusActive, yamdb.UserStatusPending))
	assert.Equal(t, yamdb.UserStatusPending, states.CurrentStatus(&yamdb.User{}))

	user, _ := env.createUser(t, "alice", yamdb.RoleUser, false)
	actor := yamdb.ActorRef{ID: user.ID.String(), Type: "user"}
	db := env.repo.DB()

	require.NoError(t, states.TransitionTx(ctx, db, actor, user, yamdb.UserStatusActive))
	assert.Equal(t, yamdb.UserStatusActive, user.Status)

	stored, err := env.repo.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, yamdb.UserStatusActive, stored.Status)

	// same status is a no-op
	require.NoError(t, states.TransitionTx(ctx, db, actor, user, yamdb.UserStatusActive))
	require.Len(t, recorded, 1)
	assert.Equal(t, yamdb.UserStatusPending, recorded[0].FromStatus)
	assert.Equal(t, yamdb.UserStatusActive, recorded[0].ToStatus)

	err = states.TransitionTx(ctx, db, actor, user, yamdb.UserStatusPending)
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, yamdb.ErrInvalidTransition.TextCode, richErr.TextCode)

	err = states.TransitionTx(ctx, db, actor, nil, yamdb.UserStatusActive)
	assert.Error(t, err)
	assert.Empty(t, yamdb.ErrInvalidTransition.Metadata)
}
