package yamdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-yamdb"
)

func genreSlugs(title *yamdb.Title) []string {
	out := []string{}
	for _, g := range title.Genres {
		out = append(out, g.Slug)
	}
	return out
}

func TestCatalogService_Categories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, admin := env.createUser(t, "admin", yamdb.RoleAdmin, false)
	_, user := env.createUser(t, "bob", yamdb.RoleUser, false)

	_, err := env.catalog.CreateCategory(ctx, user, yamdb.CatalogInput{Name: "Films", Slug: "films"})
	assert.True(t, yamdb.IsPermissionDenied(err))

	_, err = env.catalog.CreateCategory(ctx, nil, yamdb.CatalogInput{Name: "Films", Slug: "films"})
	assert.True(t, yamdb.IsAuthenticationRequired(err))

	for _, in := range []yamdb.CatalogInput{
		{Name: "Music", Slug: "music"},
		{Name: "Books", Slug: "books"},
		{Name: "Films", Slug: "films"},
	} {
		_, err := env.catalog.CreateCategory(ctx, admin, in)
		require.NoError(t, err)
	}

	_, err = env.catalog.CreateCategory(ctx, admin, yamdb.CatalogInput{Name: "Movies", Slug: "films"})
	assert.True(t, yamdb.IsConflict(err))
	assert.Contains(t, yamdb.ErrorFields(err), "slug")

	records, count, err := env.catalog.ListCategories(ctx, "", yamdb.Page{})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.Len(t, records, 3)
	assert.Equal(t, "Books", records[0].Name)

	records, count, err = env.catalog.ListCategories(ctx, "", yamdb.Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.Len(t, records, 1)
	assert.Equal(t, "Films", records[0].Name)

	records, count, err = env.catalog.ListCategories(ctx, "mus", yamdb.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "music", records[0].Slug)

	err = env.catalog.DeleteCategory(ctx, admin, "missing")
	assert.True(t, yamdb.IsNotFound(err))
}

func TestCatalogService_Titles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, admin := env.createUser(t, "admin", yamdb.RoleAdmin, false)

	title := env.seedCatalog(t, admin)
	require.NotNil(t, title.Category)
	assert.Equal(t, "films", title.Category.Slug)
	assert.ElementsMatch(t, []string{"drama", "crime"}, genreSlugs(title))

	_, err := env.catalog.CreateTitle(ctx, admin, yamdb.TitleInput{Name: "Solaris", Year: 1972, Category: "opera"})
	assert.Contains(t, yamdb.ErrorFields(err), "category")

	_, err = env.catalog.CreateTitle(ctx, admin, yamdb.TitleInput{Name: "Solaris", Year: 1972, Genre: []string{"drama", "space"}})
	assert.Contains(t, yamdb.ErrorFields(err), "genre")

	_, err = env.catalog.CreateTitle(ctx, admin, yamdb.TitleInput{Name: "Future", Year: time.Now().Year() + 1})
	assert.Contains(t, yamdb.ErrorFields(err), "year")

	bare, err := env.catalog.CreateTitle(ctx, admin, yamdb.TitleInput{Name: "Solaris", Year: 1972})
	require.NoError(t, err)
	assert.Nil(t, bare.Category)
	assert.Empty(t, bare.Genres)

	t.Run("filters", func(t *testing.T) {
		cases := []struct {
			filter yamdb.TitleFilter
			want   int
		}{
			{yamdb.TitleFilter{}, 2},
			{yamdb.TitleFilter{Category: "films"}, 1},
			{yamdb.TitleFilter{Genre: "crime"}, 1},
			{yamdb.TitleFilter{Genre: "western"}, 0},
			{yamdb.TitleFilter{Name: "Pulp"}, 1},
			{yamdb.TitleFilter{Year: 1972}, 1},
			{yamdb.TitleFilter{Year: 1972, Category: "films"}, 0},
		}
		for _, tc := range cases {
			_, count, err := env.catalog.ListTitles(ctx, tc.filter, yamdb.Page{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, count, "%+v", tc.filter)
		}
	})

	t.Run("patch keeps genres when omitted", func(t *testing.T) {
		name := "Pulp Fiction (remastered)"
		updated, err := env.catalog.UpdateTitle(ctx, admin, title.ID, yamdb.TitlePatch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, name, updated.Name)
		assert.ElementsMatch(t, []string{"drama", "crime"}, genreSlugs(updated))
	})

	t.Run("patch replaces genres and clears category", func(t *testing.T) {
		genres := []string{"crime"}
		none := ""
		updated, err := env.catalog.UpdateTitle(ctx, admin, title.ID, yamdb.TitlePatch{Genre: &genres, Category: &none})
		require.NoError(t, err)
		assert.Equal(t, []string{"crime"}, genreSlugs(updated))
		assert.Nil(t, updated.Category)
	})

	t.Run("unknown title", func(t *testing.T) {
		_, err := env.catalog.GetTitle(ctx, uuid.New())
		assert.True(t, yamdb.IsNotFound(err))
	})
}

func TestCatalogService_Rating(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, admin := env.createUser(t, "admin", yamdb.RoleAdmin, false)
	_, alice := env.createUser(t, "alice", yamdb.RoleUser, false)
	_, bob := env.createUser(t, "bob", yamdb.RoleUser, false)

	title := env.seedCatalog(t, admin)

	got, err := env.catalog.GetTitle(ctx, title.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Rating)

	_, err = env.reviews.CreateReview(ctx, alice, title.ID, yamdb.ReviewInput{Text: "good", Score: 8})
	require.NoError(t, err)
	_, err = env.reviews.CreateReview(ctx, bob, title.ID, yamdb.ReviewInput{Text: "great", Score: 10})
	require.NoError(t, err)

	got, err = env.catalog.GetTitle(ctx, title.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 9.0, *got.Rating, 0.0001)

	list, _, err := env.catalog.ListTitles(ctx, yamdb.TitleFilter{}, yamdb.Page{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Rating)
	assert.InDelta(t, 9.0, *list[0].Rating, 0.0001)
}

func TestCatalogService_DeleteCategoryKeepsTitles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, admin := env.createUser(t, "admin", yamdb.RoleAdmin, false)

	title := env.seedCatalog(t, admin)

	require.NoError(t, env.catalog.DeleteCategory(ctx, admin, "films"))
	require.NoError(t, env.catalog.DeleteGenre(ctx, admin, "drama"))

	got, err := env.catalog.GetTitle(ctx, title.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Category)
	assert.Equal(t, []string{"crime"}, genreSlugs(got))
}

func TestCatalogService_DeleteTitleCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, admin := env.createUser(t, "admin", yamdb.RoleAdmin, false)
	_, alice := env.createUser(t, "alice", yamdb.RoleUser, false)

	title := env.seedCatalog(t, admin)
	review, err := env.reviews.CreateReview(ctx, alice, title.ID, yamdb.ReviewInput{Text: "good", Score: 8})
	require.NoError(t, err)
	_, err = env.reviews.CreateComment(ctx, admin, title.ID, review.ID, yamdb.CommentInput{Text: "agreed"})
	require.NoError(t, err)

	_, user := env.createUser(t, "bob", yamdb.RoleUser, false)
	assert.True(t, yamdb.IsPermissionDenied(env.catalog.DeleteTitle(ctx, user, title.ID)))

	require.NoError(t, env.catalog.DeleteTitle(ctx, admin, title.ID))

	_, err = env.catalog.GetTitle(ctx, title.ID)
	assert.True(t, yamdb.IsNotFound(err))

	count, err := env.repo.DB().NewSelect().Model((*yamdb.Review)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = env.repo.DB().NewSelect().Model((*yamdb.Comment)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	genres, _, err := env.catalog.ListGenres(ctx, "", yamdb.Page{})
	require.NoError(t, err)
	assert.Len(t, genres, 2)
}
