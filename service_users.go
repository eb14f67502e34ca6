package yamdb

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// UserInput is the admin payload for creating a user.
type UserInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
}

// UserPatch is a partial profile update. Nil fields are left untouched.
type UserPatch struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Role      *string `json:"role"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
}

// UserService implements profile and admin user management.
type UserService struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

// UserServiceOption customizes a UserService.
type UserServiceOption func(*UserService)

// WithUserServiceActivitySink sets the activity sink.
func WithUserServiceActivitySink(sink ActivitySink) UserServiceOption {
	return func(s *UserService) {
		s.activity = normalizeActivitySink(sink)
	}
}

// WithUserServiceLogger sets the logger.
func WithUserServiceLogger(logger Logger) UserServiceOption {
	return func(s *UserService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewUserService returns a user service over repo.
func NewUserService(repo RepositoryManager, opts ...UserServiceOption) *UserService {
	s := &UserService{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Me returns the caller's own record.
func (s *UserService) Me(ctx context.Context, actor *Actor) (*User, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrAuthenticationRequired
	}
	return s.repo.Users().GetByID(ctx, actor.ID)
}

// UpdateMe patches the caller's own profile. A role in the patch goes
// through ClampRole, so ordinary users keep their role.
func (s *UserService) UpdateMe(ctx context.Context, actor *Actor, patch UserPatch) (*User, error) {
	user, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.applyPatch(ctx, actor, user, patch)
}

// List returns users ordered by username, optionally filtered by a username
// fragment. Admin only.
func (s *UserService) List(ctx context.Context, actor *Actor, search string, page Page) ([]*User, int, error) {
	if err := Authorize(actor, Resource{Kind: ResourceUser}, ActionList); err != nil {
		return nil, 0, err
	}
	return s.repo.Users().List(ctx, search, page)
}

// Create adds a user on behalf of an admin.
func (s *UserService) Create(ctx context.Context, actor *Actor, in UserInput) (*User, error) {
	if err := Authorize(actor, Resource{Kind: ResourceUser}, ActionCreate); err != nil {
		return nil, err
	}

	requested := RoleUser
	if in.Role != "" {
		requested = UserRole(in.Role)
	}

	user := &User{
		Username:  in.Username,
		Email:     in.Email,
		Role:      requested,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
		Status:    UserStatusPending,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	user.Role = ClampRole(actor, RoleUser, requested)

	created, err := s.repo.Users().Create(ctx, user)
	if err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, s.now, ActivityEvent{
		EventType: ActivityEventSignUp,
		Actor:     ActorRefFrom(actor),
		UserID:    created.ID.String(),
		ToStatus:  created.Status,
		Metadata:  map[string]any{"role": created.Role},
	})

	return created, nil
}

// Get returns a user by username. "me" resolves to the caller.
func (s *UserService) Get(ctx context.Context, actor *Actor, username string) (*User, error) {
	if err := Authorize(actor, Resource{Kind: ResourceUser}, ActionRetrieve); err != nil {
		return nil, err
	}

	username, err := ResolveUsername(actor, username)
	if err != nil {
		return nil, err
	}

	return s.repo.Users().FindByUsername(ctx, username)
}

// Update patches any user on behalf of an admin.
func (s *UserService) Update(ctx context.Context, actor *Actor, username string, patch UserPatch) (*User, error) {
	if err := Authorize(actor, Resource{Kind: ResourceUser}, ActionUpdate); err != nil {
		return nil, err
	}

	user, err := s.Get(ctx, actor, username)
	if err != nil {
		return nil, err
	}

	return s.applyPatch(ctx, actor, user, patch)
}

// SetRole changes a user's role through the clamp.
func (s *UserService) SetRole(ctx context.Context, actor *Actor, username string, role UserRole) (*User, error) {
	value := string(role)
	return s.Update(ctx, actor, username, UserPatch{Role: &value})
}

// Delete removes a user together with their reviews and comments.
func (s *UserService) Delete(ctx context.Context, actor *Actor, username string) error {
	if err := Authorize(actor, Resource{Kind: ResourceUser}, ActionDelete); err != nil {
		return err
	}

	user, err := s.Get(ctx, actor, username)
	if err != nil {
		return err
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.repo.Users().DeleteTx(ctx, tx, user)
	})
	if err != nil {
		return internalError(err, "failed to delete user")
	}

	recordActivity(ctx, s.activity, s.logger, s.now, ActivityEvent{
		EventType: ActivityEventUserDeleted,
		Actor:     ActorRefFrom(actor),
		UserID:    user.ID.String(),
	})

	return nil
}

func (s *UserService) applyPatch(ctx context.Context, actor *Actor, user *User, patch UserPatch) (*User, error) {
	columns := []string{}
	previousRole := user.Role

	if patch.Username != nil {
		user.Username = *patch.Username
		columns = append(columns, "username")
	}
	if patch.Email != nil {
		user.Email = *patch.Email
		columns = append(columns, "email")
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
		columns = append(columns, "first_name")
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
		columns = append(columns, "last_name")
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
		columns = append(columns, "bio")
	}
	if patch.Role != nil {
		user.Role = UserRole(*patch.Role)
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	if patch.Role != nil {
		user.Role = ClampRole(actor, previousRole, user.Role)
		if user.Role != previousRole {
			columns = append(columns, "role")
		}
	}

	if len(columns) == 0 {
		return user, nil
	}

	updated, err := s.repo.Users().Update(ctx, user, columns...)
	if err != nil {
		return nil, err
	}

	if updated.Role != previousRole {
		recordActivity(ctx, s.activity, s.logger, s.now, ActivityEvent{
			EventType: ActivityEventUserRoleChanged,
			Actor:     ActorRefFrom(actor),
			UserID:    updated.ID.String(),
			Metadata: map[string]any{
				"from": previousRole,
				"to":   updated.Role,
			},
		})
	}

	return updated, nil
}
