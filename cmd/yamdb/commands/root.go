package commands

import (
	"context"
	"fmt"
	"os"

	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-yamdb"
	"github.com/goliatone/go-yamdb/activitymap"
	"github.com/goliatone/go-yamdb/config"
	"github.com/goliatone/go-yamdb/database"
	"github.com/goliatone/go-yamdb/logger"
)

var (
	// Global flags
	envFile  string
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "yamdb",
	Short: "YaMDb - reviews and ratings for films, books and music",
	Long: `YaMDb collects user reviews of titles (films, books, music) and
computes their ratings.

Users register with a username and email, receive a confirmation code by
mail and exchange it for an access token.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Path to a .env file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override YAMDB_LOG_LEVEL")
}

// runtime bundles everything a command needs.
type runtime struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *bun.DB
	repo   yamdb.RepositoryManager
	tokens *yamdb.TokenServiceImpl
	codes  *yamdb.ConfirmationCodes
}

func newRuntime(ctx context.Context, migrate bool) (*runtime, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to load config")
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	log := logger.New(level)

	opts := database.Options{
		Driver: cfg.DatabaseDriver,
		DSN:    cfg.DatabaseDSN,
		Debug:  cfg.DatabaseDebug,
	}

	var db *bun.DB
	if migrate {
		db, err = database.OpenAndMigrate(ctx, opts)
	} else {
		db, err = database.Open(ctx, opts)
	}
	if err != nil {
		return nil, err
	}

	codes, err := yamdb.NewConfirmationCodesFromConfig(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	repo := yamdb.NewRepositoryManager(db)
	repo.MustValidate()

	return &runtime{
		cfg:    cfg,
		log:    log,
		db:     db,
		repo:   repo,
		tokens: yamdb.NewTokenServiceFromConfig(cfg, log),
		codes:  codes,
	}, nil
}

func (r *runtime) notifier() yamdb.Notifier {
	if r.cfg.MailBackend == config.MailBackendSMTP {
		return yamdb.NewSMTPNotifier(yamdb.SMTPConfig{
			Host:     r.cfg.SMTPHost,
			Port:     r.cfg.SMTPPort,
			From:     r.cfg.SMTPFrom,
			Username: r.cfg.SMTPUsername,
			Password: r.cfg.SMTPPassword,
		})
	}
	return yamdb.NewLogNotifier(r.log)
}

// activitySink appends JSON lines to the audit log when one is configured,
// otherwise events go to the process logger.
func (r *runtime) activitySink() (yamdb.ActivitySink, func(), error) {
	if r.cfg.AuditLog == "" {
		return yamdb.LoggerActivitySink(r.log), func() {}, nil
	}

	f, err := os.OpenFile(r.cfg.AuditLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open audit log")
	}
	return activitymap.JSONSink(f), func() { _ = f.Close() }, nil
}

func (r *runtime) Close() {
	if r.db != nil {
		_ = r.db.Close()
	}
}
