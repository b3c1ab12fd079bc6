package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"recipe-box/internal/config"
	"recipe-box/internal/infra/adapter/persistence"
	"recipe-box/internal/infra/db"
	"recipe-box/internal/infra/mealdb"
	"recipe-box/internal/observability/logging"
	"recipe-box/internal/render"
	"recipe-box/internal/repository"
	recipeUC "recipe-box/internal/usecase/recipe"
	searchUC "recipe-box/internal/usecase/search"
)

const defaultWidth = 72

// app carries what every subcommand needs. Tests fill it in directly;
// otherwise it is built from the environment before the first command runs.
type app struct {
	out io.Writer
	in  io.Reader

	cfg     *config.AppConfig
	store   repository.KeyValueStore
	recipes *recipeUC.Service
	search  *searchUC.Service
	term    *render.Terminal
}

func newRootCmd(a *app) *cobra.Command {
	var (
		width     int
		ephemeral bool
	)

	root := &cobra.Command{
		Use:           "recipes",
		Short:         "Search and keep recipes",
		Long:          `recipes searches TheMealDB together with your own saved recipes and lets you add or remove recipes in the local store.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.term == nil || cmd.Flags().Changed("width") {
				a.term = render.NewTerminal(width)
			}
			if a.recipes != nil {
				return nil
			}
			return a.open(cmd.Context(), ephemeral)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				return nil
			}
			err := a.store.Close()
			a.store = nil
			return err
		},
	}
	root.SetOut(a.out)
	root.SetIn(a.in)
	root.PersistentFlags().IntVar(&width, "width", defaultWidth, "Card width in columns")
	root.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep recipes in memory for this run only")

	root.AddCommand(
		newSearchCmd(a),
		newShowCmd(a),
		newAddCmd(a),
		newRemoveCmd(a),
		newListCmd(a),
		newSeedCmd(a),
		newSnapshotCmd(a),
		newInteractiveCmd(a),
	)
	return root
}

// open loads configuration and wires the store, the remote client and both
// services. With ephemeral set the store lives in memory and starts seeded.
func (a *app) open(ctx context.Context, ephemeral bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, "text", cfg.LogLevel)
	if ephemeral {
		cfg.Store.Backend = config.BackendMemory
	}

	store, err := persistence.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}

	remote := mealdb.NewClient(mealdb.Config{
		BaseURL:     cfg.MealDB.BaseURL,
		Timeout:     cfg.MealDB.Timeout,
		RateLimit:   cfg.MealDB.RateLimit,
		Burst:       cfg.MealDB.Burst,
		MaxBodySize: cfg.MealDB.MaxBodySize,
	})

	a.cfg = cfg
	a.store = store
	a.recipes = recipeUC.NewService(store, cfg.Store.Key, logger)
	a.search = searchUC.NewService(a.recipes, remote, logger)

	if ephemeral {
		defaults, err := db.DefaultRecipes()
		if err != nil {
			return err
		}
		if _, err := a.recipes.SeedDefaults(ctx, defaults); err != nil {
			return err
		}
	}
	return nil
}
