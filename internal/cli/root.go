package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"glance/internal/application"
	"glance/internal/config"
	"glance/internal/infrastructure/github"
	"glance/internal/infrastructure/kvstore"
	"glance/internal/infrastructure/repository"
	"glance/internal/ports"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	Backend string
	DataDir string
	Verbose bool
}

var rf rootFlags

// Execute runs glancectl
func Execute() error {
	return newRootCmd(os.Stdout).Execute()
}

func newRootCmd(out io.Writer) *cobra.Command {
	cfg := config.Load(zerolog.Nop())

	rootCmd := &cobra.Command{
		Use:          "glancectl",
		Short:        "Manage Glance widgets and accounts from the terminal",
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&rf.Backend, "backend", cfg.Storage.Backend, "Storage backend: file|memory|redis|mongo|postgres (defaults to STORAGE_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&rf.DataDir, "data-dir", cfg.Storage.DataDir, "Directory of the file backend (defaults to DATA_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&rf.Verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(widgetsCmd(cfg))
	rootCmd.AddCommand(accountsCmd(cfg))
	rootCmd.AddCommand(galleryCmd())

	return rootCmd
}

// app is the wired application a command works against
type app struct {
	store    ports.KVStore
	state    *application.Coordinator
	widgets  *application.WidgetService
	accounts *application.AccountService
}

func (a *app) Close() {
	_ = a.store.Close(context.Background())
}

func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	level := zerolog.WarnLevel
	if rf.Verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	storage := cfg.Storage
	storage.Backend = rf.Backend
	storage.DataDir = rf.DataDir

	store, err := kvstore.Open(ctx, storage, logger)
	if err != nil {
		return nil, err
	}

	state := application.NewCoordinator(
		repository.NewKVWidgetRepository(store, logger),
		repository.NewKVIntegrationRepository(store, logger),
		nil,
		logger,
	)
	if err := state.Init(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("load state: %w", err)
	}

	client := github.NewClient(cfg.GitHub.HTTPTimeout, logger)
	return &app{
		store:    store,
		state:    state,
		widgets:  application.NewWidgetService(state, logger),
		accounts: application.NewAccountService(state, client, cfg.GitHub.DefaultAPIURL, logger),
	}, nil
}
