package yamdb_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-yamdb"
)

func TestDecide(t *testing.T) {
	author := &yamdb.Actor{ID: uuid.New(), Username: "author", Role: yamdb.RoleUser}
	other := &yamdb.Actor{ID: uuid.New(), Username: "other", Role: yamdb.RoleUser}
	moderator := &yamdb.Actor{ID: uuid.New(), Username: "mod", Role: yamdb.RoleModerator}
	admin := &yamdb.Actor{ID: uuid.New(), Username: "admin", Role: yamdb.RoleAdmin}
	superuser := &yamdb.Actor{ID: uuid.New(), Username: "root", Role: yamdb.RoleUser, IsSuperuser: true}

	review := yamdb.Resource{Kind: yamdb.ResourceReview, AuthorID: author.ID}
	comment := yamdb.Resource{Kind: yamdb.ResourceComment, AuthorID: author.ID}
	title := yamdb.Resource{Kind: yamdb.ResourceTitle}
	users := yamdb.Resource{Kind: yamdb.ResourceUser}

	tests := []struct {
		name   string
		actor  *yamdb.Actor
		res    yamdb.Resource
		action yamdb.Action
		want   yamdb.Decision
	}{
		{"anonymous lists titles", nil, title, yamdb.ActionList, yamdb.Allow},
		{"anonymous reads review", nil, review, yamdb.ActionRetrieve, yamdb.Allow},
		{"anonymous cannot create review", nil, review, yamdb.ActionCreate, yamdb.Deny},
		{"anonymous cannot list users", nil, users, yamdb.ActionList, yamdb.Deny},
		{"user cannot create title", author, title, yamdb.ActionCreate, yamdb.Deny},
		{"admin creates title", admin, title, yamdb.ActionCreate, yamdb.Allow},
		{"superuser deletes title", superuser, title, yamdb.ActionDelete, yamdb.Allow},
		{"moderator cannot create title", moderator, title, yamdb.ActionCreate, yamdb.Deny},
		{"user creates review", other, review, yamdb.ActionCreate, yamdb.Allow},
		{"author updates review", author, review, yamdb.ActionUpdate, yamdb.Allow},
		{"other cannot update review", other, review, yamdb.ActionUpdate, yamdb.Deny},
		{"other cannot delete comment", other, comment, yamdb.ActionDelete, yamdb.Deny},
		{"moderator deletes review", moderator, review, yamdb.ActionDelete, yamdb.Allow},
		{"moderator updates comment", moderator, comment, yamdb.ActionUpdate, yamdb.Allow},
		{"admin deletes comment", admin, comment, yamdb.ActionDelete, yamdb.Allow},
		{"user cannot read users", author, users, yamdb.ActionRetrieve, yamdb.Deny},
		{"moderator cannot read users", moderator, users, yamdb.ActionRetrieve, yamdb.Deny},
		{"admin manages users", admin, users, yamdb.ActionDelete, yamdb.Allow},
		{"superuser manages users", superuser, users, yamdb.ActionUpdate, yamdb.Allow},
		{"unknown kind", admin, yamdb.Resource{Kind: "planet"}, yamdb.ActionList, yamdb.Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, yamdb.Decide(tt.actor, tt.res, tt.action))
		})
	}
}

func TestAuthorize(t *testing.T) {
	res := yamdb.Resource{Kind: yamdb.ResourceCategory}

	assert.NoError(t, yamdb.Authorize(nil, res, yamdb.ActionList))

	err := yamdb.Authorize(nil, res, yamdb.ActionCreate)
	assert.True(t, yamdb.IsAuthenticationRequired(err))

	user := &yamdb.Actor{ID: uuid.New(), Role: yamdb.RoleUser}
	err = yamdb.Authorize(user, res, yamdb.ActionCreate)
	assert.True(t, yamdb.IsPermissionDenied(err))

	// an actor without an id counts as anonymous
	err = yamdb.Authorize(&yamdb.Actor{Role: yamdb.RoleAdmin}, res, yamdb.ActionCreate)
	assert.True(t, yamdb.IsAuthenticationRequired(err))
}

func TestClampRole(t *testing.T) {
	user := &yamdb.Actor{ID: uuid.New(), Role: yamdb.RoleUser}
	moderator := &yamdb.Actor{ID: uuid.New(), Role: yamdb.RoleModerator}
	admin := &yamdb.Actor{ID: uuid.New(), Role: yamdb.RoleAdmin}
	superuser := &yamdb.Actor{ID: uuid.New(), Role: yamdb.RoleUser, IsSuperuser: true}

	assert.Equal(t, yamdb.RoleUser, yamdb.ClampRole(user, yamdb.RoleUser, yamdb.RoleAdmin))
	assert.Equal(t, yamdb.RoleModerator, yamdb.ClampRole(moderator, yamdb.RoleModerator, yamdb.RoleAdmin))
	assert.Equal(t, yamdb.RoleUser, yamdb.ClampRole(admin, yamdb.RoleUser, yamdb.RoleModerator))
	assert.Equal(t, yamdb.RoleUser, yamdb.ClampRole(admin, yamdb.RoleModerator, yamdb.RoleAdmin))
	assert.Equal(t, yamdb.RoleAdmin, yamdb.ClampRole(superuser, yamdb.RoleUser, yamdb.RoleAdmin))
	assert.Equal(t, yamdb.RoleModerator, yamdb.ClampRole(nil, yamdb.RoleModerator, yamdb.RoleAdmin))
}

func TestResolveUsername(t *testing.T) {
	actor := &yamdb.Actor{ID: uuid.New(), Username: "alice", Role: yamdb.RoleAdmin}

	name, err := yamdb.ResolveUsername(actor, "me")
	assert.NoError(t, err)
	assert.Equal(t, "alice", name)

	name, err = yamdb.ResolveUsername(actor, "bob")
	assert.NoError(t, err)
	assert.Equal(t, "bob", name)

	_, err = yamdb.ResolveUsername(nil, "me")
	assert.True(t, yamdb.IsAuthenticationRequired(err))
}

func TestActor(t *testing.T) {
	var anonymous *yamdb.Actor
	assert.False(t, anonymous.IsAuthenticated())
	assert.False(t, anonymous.IsAdmin())
	assert.False(t, anonymous.IsAtLeast(yamdb.RoleUser))
	assert.Nil(t, yamdb.ActorFromUser(nil))

	superuser := yamdb.ActorFromUser(&yamdb.User{ID: uuid.New(), Role: yamdb.RoleUser, IsSuperuser: true})
	assert.True(t, superuser.IsAdmin())
	assert.True(t, superuser.IsAtLeast(yamdb.RoleModerator))
}
