package yamdb

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const textCodeInvalidTransition = "INVALID_USER_STATE_TRANSITION"

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid user state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// RegistrationStates moves users along pending -> active. Active is
// terminal; re-registering an active user keeps it active.
type RegistrationStates struct {
	users        Users
	transitions  map[UserStatus]map[UserStatus]struct{}
	now          func() time.Time
	activitySink ActivitySink
	logger       Logger
}

// RegistrationOption customizes the registration state machine.
type RegistrationOption func(*RegistrationStates)

// WithRegistrationClock injects a custom clock.
func WithRegistrationClock(clock func() time.Time) RegistrationOption {
	return func(rs *RegistrationStates) {
		if clock != nil {
			rs.now = clock
		}
	}
}

// WithRegistrationActivitySink sets the sink used to publish status changes.
func WithRegistrationActivitySink(sink ActivitySink) RegistrationOption {
	return func(rs *RegistrationStates) {
		rs.activitySink = normalizeActivitySink(sink)
	}
}

// WithRegistrationLogger overrides the logger used for sink failures.
func WithRegistrationLogger(logger Logger) RegistrationOption {
	return func(rs *RegistrationStates) {
		if logger != nil {
			rs.logger = logger
		}
	}
}

// NewRegistrationStates returns the default status machine.
func NewRegistrationStates(users Users, opts ...RegistrationOption) *RegistrationStates {
	rs := &RegistrationStates{
		users: users,
		transitions: map[UserStatus]map[UserStatus]struct{}{
			UserStatusPending: {
				UserStatusActive: {},
			},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(rs)
		}
	}

	return rs
}

// CanTransition reports whether from -> to is an allowed edge.
func (rs *RegistrationStates) CanTransition(from, to UserStatus) bool {
	if allowed, ok := rs.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

// CurrentStatus returns the user's status, treating an empty one as pending.
func (rs *RegistrationStates) CurrentStatus(user *User) UserStatus {
	if user == nil {
		return ""
	}
	if user.Status == "" {
		return UserStatusPending
	}
	return user.Status
}

// TransitionTx persists a status change inside tx. Moving to the current
// status is a no-op.
func (rs *RegistrationStates) TransitionTx(ctx context.Context, tx bun.IDB, actor ActorRef, user *User, target UserStatus) error {
	if user == nil {
		return ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"target": target,
			"reason": "user is nil",
		})
	}

	from := rs.CurrentStatus(user)
	if from == target {
		return nil
	}

	if !rs.CanTransition(from, target) {
		return ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	if err := rs.users.UpdateStatusTx(ctx, tx, user.ID, target); err != nil {
		return err
	}
	user.Status = target

	recordActivity(ctx, rs.activitySink, rs.logger, rs.now, ActivityEvent{
		EventType:  ActivityEventUserStatusChanged,
		Actor:      actor,
		UserID:     user.ID.String(),
		FromStatus: from,
		ToStatus:   target,
	})

	return nil
}
