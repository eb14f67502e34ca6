package yamdb_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-yamdb"
	"github.com/goliatone/go-yamdb/config"
	"github.com/goliatone/go-yamdb/database"
)

const testSigningKey = "test-signing-key-0123456789"

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// testEnv bundles a fresh in-memory store and the services built on it.
type testEnv struct {
	repo     yamdb.RepositoryManager
	codes    *yamdb.ConfirmationCodes
	tokens   *yamdb.TokenServiceImpl
	notifier *yamdb.LogNotifier
	flow     *yamdb.AuthFlow
	users    *yamdb.UserService
	catalog  *yamdb.CatalogService
	reviews  *yamdb.ReviewService
	cfg      config.Config
	events   []yamdb.ActivityEvent
}

func testConfig() config.Config {
	return config.Config{
		SigningKey:      testSigningKey,
		CodeSalt:        "test-salt",
		CodeTTL:         yamdb.DefaultCodeTTL,
		TokenExpiration: 24,
		Issuer:          "yamdb",
		Audience:        []string{"yamdb"},
		ContextKey:      "user",
		TokenLookup:     "header:Authorization",
		AuthScheme:      "Bearer",
	}
}

func setupRepo(t *testing.T) yamdb.RepositoryManager {
	t.Helper()

	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(uuid.NewString(), "-", ""))

	db, err := database.OpenAndMigrate(ctx, database.Options{Driver: database.DriverSQLite, DSN: dsn})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	repo := yamdb.NewRepositoryManager(db)
	require.NoError(t, repo.Validate())
	return repo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:     setupRepo(t),
		cfg:      testConfig(),
		notifier: yamdb.NewLogNotifier(nopLogger{}),
	}

	codes, err := yamdb.NewConfirmationCodesFromConfig(env.cfg)
	require.NoError(t, err)
	env.codes = codes
	env.tokens = yamdb.NewTokenServiceFromConfig(env.cfg, nopLogger{})

	sink := yamdb.ActivitySinkFunc(func(_ context.Context, event yamdb.ActivityEvent) error {
		env.events = append(env.events, event)
		return nil
	})

	env.flow = yamdb.NewAuthFlow(env.repo, env.codes, env.tokens, env.notifier,
		yamdb.WithAuthFlowLogger(nopLogger{}),
		yamdb.WithAuthFlowActivitySink(sink),
	)
	env.users = yamdb.NewUserService(env.repo,
		yamdb.WithUserServiceLogger(nopLogger{}),
		yamdb.WithUserServiceActivitySink(sink),
	)
	env.catalog = yamdb.NewCatalogService(env.repo, nil)
	env.reviews = yamdb.NewReviewService(env.repo)

	return env
}

// lastCode reads the confirmation code from the last message sent to email.
func (e *testEnv) lastCode(t *testing.T, email string) string {
	t.Helper()
	body, ok := e.notifier.Last(email)
	require.True(t, ok, "no message sent to %s", email)
	return strings.TrimPrefix(body, "Your confirmation code: ")
}

// createUser stores a user directly and returns it with its actor.
func (e *testEnv) createUser(t *testing.T, username string, role yamdb.UserRole, superuser bool) (*yamdb.User, *yamdb.Actor) {
	t.Helper()
	user, err := e.repo.Users().Create(context.Background(), &yamdb.User{
		Username:    username,
		Email:       username + "@example.com",
		Role:        role,
		IsSuperuser: superuser,
	})
	require.NoError(t, err)
	return user, yamdb.ActorFromUser(user)
}

func (e *testEnv) eventTypes() []yamdb.ActivityEventType {
	out := make([]yamdb.ActivityEventType, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.EventType)
	}
	return out
}

// seedCatalog creates a category, two genres and one title in both.
func (e *testEnv) seedCatalog(t *testing.T, admin *yamdb.Actor) *yamdb.Title {
	t.Helper()
	ctx := context.Background()

	_, err := e.catalog.CreateCategory(ctx, admin, yamdb.CatalogInput{Name: "Films", Slug: "films"})
	require.NoError(t, err)
	_, err = e.catalog.CreateGenre(ctx, admin, yamdb.CatalogInput{Name: "Drama", Slug: "drama"})
	require.NoError(t, err)
	_, err = e.catalog.CreateGenre(ctx, admin, yamdb.CatalogInput{Name: "Crime", Slug: "crime"})
	require.NoError(t, err)

	title, err := e.catalog.CreateTitle(ctx, admin, yamdb.TitleInput{
		Name:     "Pulp Fiction",
		Year:     1994,
		Category: "films",
		Genre:    []string{"drama", "crime"},
	})
	require.NoError(t, err)
	return title
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}
