package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-yamdb"
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	activity, closeActivity, err := rt.activitySink()
	if err != nil {
		return err
	}
	defer closeActivity()

	flow := yamdb.NewAuthFlow(rt.repo, rt.codes, rt.tokens, rt.notifier(),
		yamdb.WithAuthFlowLogger(rt.log),
		yamdb.WithAuthFlowActivitySink(activity),
		yamdb.WithHashidUserIDs(rt.cfg.UseHashid),
	)

	users := yamdb.NewUserService(rt.repo,
		yamdb.WithUserServiceLogger(rt.log),
		yamdb.WithUserServiceActivitySink(activity),
	)

	catalog := yamdb.NewCatalogService(rt.repo, yamdb.NewRatingAggregator(rt.repo.Reviews()))
	reviews := yamdb.NewReviewService(rt.repo)

	guard := yamdb.NewHTTPAuthenticator(rt.tokens, rt.repo.Users(), rt.cfg)
	guard.Logger = rt.log

	app := yamdb.NewFiberApp(rt.log)
	yamdb.NewAPIController(flow, users, catalog, reviews, guard, yamdb.WithAPILogger(rt.log)).
		RegisterRoutes(app)

	errCh := make(chan error, 1)
	go func() {
		rt.log.Info("listening", "port", rt.cfg.Port)
		errCh <- app.Listen(":" + rt.cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		rt.log.Info("shutting down")
		return app.Shutdown()
	}
}
