package yamdb

import (
	"github.com/google/uuid"
)

// Action is an operation requested on a resource.
type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

// IsReadOnly reports whether the action does not mutate state.
func (a Action) IsReadOnly() bool {
	return a == ActionList || a == ActionRetrieve
}

// ResourceKind names the guarded entity types.
type ResourceKind string

const (
	ResourceCategory ResourceKind = "category"
	ResourceGenre    ResourceKind = "genre"
	ResourceTitle    ResourceKind = "title"
	ResourceReview   ResourceKind = "review"
	ResourceComment  ResourceKind = "comment"
	ResourceUser     ResourceKind = "user"
)

// Resource is what a decision is made about. AuthorID is only meaningful for
// reviews and comments.
type Resource struct {
	Kind     ResourceKind
	AuthorID uuid.UUID
}

// Actor is the caller of an operation. A nil *Actor is an anonymous caller.
type Actor struct {
	ID          uuid.UUID
	Username    string
	Role        UserRole
	IsSuperuser bool
}

// ActorFromUser builds an Actor from a stored user.
func ActorFromUser(user *User) *Actor {
	if user == nil {
		return nil
	}
	return &Actor{
		ID:          user.ID,
		Username:    user.Username,
		Role:        user.Role,
		IsSuperuser: user.IsSuperuser,
	}
}

// IsAuthenticated reports whether the actor is a known user.
func (a *Actor) IsAuthenticated() bool {
	return a != nil && a.ID != uuid.Nil
}

// IsAdmin reports admin clearance. The superuser flag is equivalent to admin
// for every check.
func (a *Actor) IsAdmin() bool {
	return a.IsAuthenticated() && (a.IsSuperuser || a.Role == RoleAdmin)
}

// IsAtLeast compares the actor's role against min, honoring the superuser
// override.
func (a *Actor) IsAtLeast(min UserRole) bool {
	if !a.IsAuthenticated() {
		return false
	}
	return a.IsSuperuser || a.Role.IsAtLeast(min)
}

// Decision is the tagged result of a permission check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Allowed reports whether the decision grants access.
func (d Decision) Allowed() bool {
	return d == Allow
}

// Decide evaluates (actor, resource, action). It is a pure function.
func Decide(actor *Actor, res Resource, action Action) Decision {
	switch res.Kind {
	case ResourceUser:
		if actor.IsAdmin() {
			return Allow
		}
		return Deny

	case ResourceCategory, ResourceGenre, ResourceTitle:
		if action.IsReadOnly() || actor.IsAdmin() {
			return Allow
		}
		return Deny

	case ResourceReview, ResourceComment:
		if action.IsReadOnly() {
			return Allow
		}
		if !actor.IsAuthenticated() {
			return Deny
		}
		if action == ActionCreate {
			return Allow
		}
		if actor.ID == res.AuthorID || actor.IsAtLeast(RoleModerator) {
			return Allow
		}
		return Deny
	}

	return Deny
}

// Authorize turns a Deny into an error: anonymous callers get
// ErrAuthenticationRequired, known callers ErrPermissionDenied.
func Authorize(actor *Actor, res Resource, action Action) error {
	if Decide(actor, res, action).Allowed() {
		return nil
	}

	if !actor.IsAuthenticated() {
		return ErrAuthenticationRequired
	}

	return withMetadata(ErrPermissionDenied, map[string]any{
		"resource": string(res.Kind),
		"action":   string(action),
	})
}

// ClampRole resolves the role that ends up stored when actor asks to set
// requested on a record currently holding current. Superusers get what they
// ask for. A non-superuser admin is always clamped to RoleUser, whatever the
// target record is. Anybody else cannot change roles, current is kept.
func ClampRole(actor *Actor, current, requested UserRole) UserRole {
	if !actor.IsAuthenticated() {
		return current
	}

	if actor.IsSuperuser {
		return requested
	}

	if actor.Role == RoleAdmin {
		return RoleUser
	}

	return current
}

// ResolveUsername maps the reserved "me" alias to the caller. Any other
// username is returned unchanged.
func ResolveUsername(actor *Actor, username string) (string, error) {
	if username != ReservedUsername {
		return username, nil
	}
	if !actor.IsAuthenticated() {
		return "", ErrAuthenticationRequired
	}
	return actor.Username, nil
}
