package yamdb_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-yamdb"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{"alice", "a.b", "user+tag", "x@y", "under_score", "dash-ed", "Ñandú"}
	for _, name := range valid {
		assert.NoError(t, yamdb.ValidateUsername(name), name)
	}

	invalid := []string{"", "me", "with space", "semi;colon", strings.Repeat("a", yamdb.MaxUsernameLength+1)}
	for _, name := range invalid {
		err := yamdb.ValidateUsername(name)
		assert.True(t, yamdb.IsValidation(err), name)
		assert.Contains(t, yamdb.ErrorFields(err), "username")
	}
}

func TestValidateReview(t *testing.T) {
	assert.NoError(t, yamdb.ValidateReview("great", 1))
	assert.NoError(t, yamdb.ValidateReview("great", 10))

	for _, score := range []int{0, 11, -1} {
		err := yamdb.ValidateReview("great", score)
		assert.Contains(t, yamdb.ErrorFields(err), "score", "score %d", score)
	}

	err := yamdb.ValidateReview("", 5)
	assert.Contains(t, yamdb.ErrorFields(err), "text")
}

func TestValidateTitle(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, yamdb.ValidateTitle("Dune", 1965, now))
	assert.NoError(t, yamdb.ValidateTitle("Dune", 2026, now))

	err := yamdb.ValidateTitle("Dune", 2027, now)
	assert.Contains(t, yamdb.ErrorFields(err), "year")

	err = yamdb.ValidateTitle("", 0, now)
	fields := yamdb.ErrorFields(err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "year")
}

func TestCatalogValidation(t *testing.T) {
	assert.NoError(t, (&yamdb.Category{Name: "Films", Slug: "films"}).Validate())

	err := (&yamdb.Category{Name: "Films", Slug: "no spaces"}).Validate()
	assert.Contains(t, yamdb.ErrorFields(err), "slug")

	err = (&yamdb.Genre{Slug: strings.Repeat("s", yamdb.MaxSlugLength+1)}).Validate()
	fields := yamdb.ErrorFields(err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "slug")
}

func TestUserValidate(t *testing.T) {
	user := &yamdb.User{Username: "alice", Email: "a@x.io", Role: yamdb.RoleUser}
	assert.NoError(t, user.Validate())

	user.Role = "overlord"
	assert.Contains(t, yamdb.ErrorFields(user.Validate()), "role")

	user.Role = yamdb.RoleUser
	user.Bio = strings.Repeat("b", yamdb.MaxBioLength+1)
	assert.Contains(t, yamdb.ErrorFields(user.Validate()), "bio")
}

func TestValidateComment(t *testing.T) {
	assert.NoError(t, yamdb.ValidateComment("agreed"))
	assert.Contains(t, yamdb.ErrorFields(yamdb.ValidateComment("")), "text")
}
