package yamdb

// tokenSubject is the part of a stored user that goes into an access
// token. It is copied when the token is minted, so later edits to the
// user record do not leak into claims being built.
type tokenSubject struct {
	id        string
	username  string
	email     string
	role      UserRole
	superuser bool
}

// NewIdentityFromUser snapshots user as a token Identity. A nil user has no
// identity.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return tokenSubject{
		id:        user.ID.String(),
		username:  user.Username,
		email:     user.Email,
		role:      user.Role,
		superuser: user.IsSuperuser,
	}
}

func (s tokenSubject) ID() string        { return s.id }
func (s tokenSubject) Username() string  { return s.username }
func (s tokenSubject) Email() string     { return s.email }
func (s tokenSubject) IsSuperuser() bool { return s.superuser }

// Role falls back to the lowest role when the record has none yet.
func (s tokenSubject) Role() string {
	if !s.role.IsValid() {
		return RoleUser.String()
	}
	return s.role.String()
}
