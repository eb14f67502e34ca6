package yamdb

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	// DefaultCommandTimeout bounds every flow operation
	DefaultCommandTimeout = 10 * time.Second
	// ConfirmationSubject is the subject line of the confirmation message
	ConfirmationSubject = "YaMDb registration"
)

// SignUpMessage is the sign-up request.
type SignUpMessage struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (e SignUpMessage) Type() string { return "auth.signup" }

// SignUpResult echoes the registered pair back to the caller.
type SignUpResult struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenExchangeMessage trades a confirmation code for an access token.
type TokenExchangeMessage struct {
	Username         string `json:"username"`
	ConfirmationCode string `json:"confirmation_code"`
}

func (e TokenExchangeMessage) Type() string { return "auth.token" }

// TokenResult carries the issued access token.
type TokenResult struct {
	Token string `json:"token"`
}

// AuthFlow drives registration and token exchange:
// unregistered -> pending (code issued) -> active (token issued).
type AuthFlow struct {
	repo      RepositoryManager
	codes     *ConfirmationCodes
	tokens    TokenService
	notifier  Notifier
	states    *RegistrationStates
	activity  ActivitySink
	logger    Logger
	now       func() time.Time
	timeout   time.Duration
	useHashid bool
}

// AuthFlowOption customizes an AuthFlow.
type AuthFlowOption func(*AuthFlow)

// WithAuthFlowLogger sets the logger.
func WithAuthFlowLogger(logger Logger) AuthFlowOption {
	return func(f *AuthFlow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithAuthFlowActivitySink sets the activity sink.
func WithAuthFlowActivitySink(sink ActivitySink) AuthFlowOption {
	return func(f *AuthFlow) {
		f.activity = normalizeActivitySink(sink)
	}
}

// WithAuthFlowClock injects a custom clock.
func WithAuthFlowClock(clock func() time.Time) AuthFlowOption {
	return func(f *AuthFlow) {
		if clock != nil {
			f.now = clock
		}
	}
}

// WithAuthFlowTimeout overrides DefaultCommandTimeout.
func WithAuthFlowTimeout(d time.Duration) AuthFlowOption {
	return func(f *AuthFlow) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithHashidUserIDs derives new user ids from the email address.
func WithHashidUserIDs(enabled bool) AuthFlowOption {
	return func(f *AuthFlow) {
		f.useHashid = enabled
	}
}

// NewAuthFlow wires the flow controller.
func NewAuthFlow(repo RepositoryManager, codes *ConfirmationCodes, tokens TokenService, notifier Notifier, opts ...AuthFlowOption) *AuthFlow {
	f := &AuthFlow{
		repo:     repo,
		codes:    codes,
		tokens:   tokens,
		notifier: notifier,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
		timeout:  DefaultCommandTimeout,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	f.states = NewRegistrationStates(repo.Users(),
		WithRegistrationClock(f.now),
		WithRegistrationActivitySink(f.activity),
		WithRegistrationLogger(f.logger),
	)

	return f
}

// SignUp registers the pair or reuses an exact match, rotates the code
// fingerprint and delivers a fresh code. Any previously issued code stops
// verifying.
func (f *AuthFlow) SignUp(ctx context.Context, msg SignUpMessage) (*SignUpResult, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during sign up")
	default:
		return f.signUp(ctx, msg)
	}
}

func (f *AuthFlow) signUp(ctx context.Context, msg SignUpMessage) (*SignUpResult, error) {
	if err := ValidateSignUp(msg.Username, msg.Email); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var (
		user    *User
		code    string
		created bool
	)

	err := f.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &User{
			Username: msg.Username,
			Email:    msg.Email,
			Role:     RoleUser,
			Status:   UserStatusPending,
		}

		if f.useHashid {
			record.ID = f.hashidFor(ctx, tx, msg.Email)
		}

		var err error
		user, created, err = f.repo.Users().CreateOrGetTx(ctx, tx, record)
		if err != nil {
			return err
		}

		if err = f.codes.Rotate(user); err != nil {
			return err
		}

		if code, err = f.codes.Issue(user); err != nil {
			return err
		}
		user.ConfirmationCode = code

		_, err = f.repo.Users().UpdateTx(ctx, tx, user, "confirmation_code", "code_nonce", "code_issued_at")
		return err
	})
	if err != nil {
		return nil, internalError(err, "sign up transaction failed")
	}

	body := fmt.Sprintf("Your confirmation code: %s", code)
	if err := f.notifier.Send(ctx, user.Email, ConfirmationSubject, body); err != nil {
		f.logger.Error("failed to deliver confirmation code", "username", user.Username, "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to deliver confirmation code").
			WithCode(goerrors.CodeInternal).
			WithTextCode(TextCodeNotification)
	}

	if created {
		recordActivity(ctx, f.activity, f.logger, f.now, ActivityEvent{
			EventType: ActivityEventSignUp,
			UserID:    user.ID.String(),
			ToStatus:  UserStatusPending,
		})
	}

	recordActivity(ctx, f.activity, f.logger, f.now, ActivityEvent{
		EventType: ActivityEventCodeIssued,
		UserID:    user.ID.String(),
		Metadata: map[string]any{
			"new_user": created,
		},
	})

	return &SignUpResult{Username: user.Username, Email: user.Email}, nil
}

// hashidFor derives the user id from the email. An email can be freed by a
// profile change, so a derived id that already belongs to a stored user is
// dropped and the store assigns a random one.
func (f *AuthFlow) hashidFor(ctx context.Context, tx bun.IDB, email string) uuid.UUID {
	id, err := hashid.NewUUID(email)
	if err != nil {
		return uuid.Nil
	}
	if _, err := f.repo.Users().GetByIDTx(ctx, tx, id); !IsNotFound(err) {
		return uuid.Nil
	}
	return id
}

// ExchangeToken verifies the code against the user's current fingerprint and
// issues an access token. It can be repeated while the fingerprint holds.
func (f *AuthFlow) ExchangeToken(ctx context.Context, msg TokenExchangeMessage) (*TokenResult, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during token exchange")
	default:
		return f.exchangeToken(ctx, msg)
	}
}

func (f *AuthFlow) exchangeToken(ctx context.Context, msg TokenExchangeMessage) (*TokenResult, error) {
	if err := ValidateTokenRequest(msg.Username, msg.ConfirmationCode); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	user, err := f.repo.Users().FindByUsername(ctx, msg.Username)
	if err != nil {
		return nil, err
	}

	if !f.codes.Verify(user, msg.ConfirmationCode) {
		recordActivity(ctx, f.activity, f.logger, f.now, ActivityEvent{
			EventType: ActivityEventTokenFailure,
			UserID:    user.ID.String(),
		})
		return nil, ErrInvalidCredentials
	}

	actor := ActorRef{ID: user.ID.String(), Type: "user"}
	err = f.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := f.states.TransitionTx(ctx, tx, actor, user, UserStatusActive); err != nil {
			return err
		}
		return f.repo.Users().TrackSuccessfulLoginTx(ctx, tx, user)
	})
	if err != nil {
		return nil, internalError(err, "token exchange transaction failed")
	}

	token, err := f.tokens.Generate(NewIdentityFromUser(user))
	if err != nil {
		return nil, internalError(err, "failed to issue access token")
	}

	recordActivity(ctx, f.activity, f.logger, f.now, ActivityEvent{
		EventType: ActivityEventTokenIssued,
		Actor:     actor,
		UserID:    user.ID.String(),
	})

	return &TokenResult{Token: token}, nil
}
