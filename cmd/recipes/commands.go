package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"recipe-box/internal/common/pagination"
	"recipe-box/internal/domain/entity"
	"recipe-box/internal/infra/db"
	recipeUC "recipe-box/internal/usecase/recipe"
	searchUC "recipe-box/internal/usecase/search"
	"recipe-box/internal/usecase/snapshot"
)

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search TheMealDB and your saved recipes",
		Long:  `Search runs the query against TheMealDB and the local store at the same time. Matching saved recipes are listed first. Without a query every saved recipe is listed along with TheMealDB's default results.`,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.search.Search(cmd.Context(), strings.Join(args, " "))
			printResult(cmd, a, res)
			return nil
		},
	}
}

func printResult(cmd *cobra.Command, a *app, res searchUC.Result) {
	if res.RemoteFailed() {
		cmd.Println(a.term.Notice("TheMealDB is unreachable, showing saved recipes only."))
	}
	cmd.Println(a.term.List(res.Recipes, searchUC.EmptyMessage))
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recipe in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.search.Lookup(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("lookup %s: %w", args[0], err)
			}
			if r == nil {
				return fmt.Errorf("recipe %s: %w", args[0], recipeUC.ErrRecipeNotFound)
			}
			cmd.Println(a.term.Detail(*r))
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var (
		in          recipeUC.CreateInput
		ingredients []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a recipe of your own",
		Example: `  recipes add --name "Grandma's Soup" --category Soup \
    --ingredient "2 carrots" --ingredient "1 onion"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Ingredients = strings.Join(ingredients, "\n")
			r, err := a.recipes.Create(cmd.Context(), in)
			if err != nil {
				var ve *entity.ValidationError
				if errors.As(err, &ve) {
					return errors.New(ve.Message)
				}
				return err
			}
			cmd.Println(a.term.Notice("Saved " + r.Name))
			cmd.Println(a.term.Card(*r))
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Recipe name (required)")
	cmd.Flags().StringVar(&in.Category, "category", "", "Category, defaults to "+entity.DefaultCategory)
	cmd.Flags().StringVar(&in.Area, "area", "", "Cuisine, defaults to "+entity.DefaultArea)
	cmd.Flags().StringVar(&in.ImageURL, "image", "", "Image URL")
	cmd.Flags().StringArrayVar(&ingredients, "ingredient", nil, "Ingredient line, repeatable")
	cmd.Flags().StringVar(&in.Instructions, "instructions", "", "Preparation steps")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved recipe",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.recipes.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Println(a.term.Notice("Removed " + args[0]))
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var (
		page  int
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved recipes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := pagination.Params{Page: page, Limit: limit}
			if err := params.Validate(pagination.DefaultConfig()); err != nil {
				return err
			}
			res, err := a.recipes.ListPaginated(cmd.Context(), params)
			if err != nil {
				return err
			}
			cmd.Println(a.term.List(res.Data, "No saved recipes yet."))
			if res.Pagination.TotalPages > 1 {
				cmd.Println(a.term.Notice(fmt.Sprintf("page %d of %d (%d recipes)",
					res.Pagination.Page, res.Pagination.TotalPages, res.Pagination.Total)))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "Recipes per page")
	return cmd
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add the built-in recipes to an empty store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults, err := db.DefaultRecipes()
			if err != nil {
				return err
			}
			added, err := a.recipes.SeedDefaults(cmd.Context(), defaults)
			if err != nil {
				return err
			}
			if added == 0 {
				cmd.Println(a.term.Notice("Store already has recipes, nothing seeded."))
				return nil
			}
			cmd.Println(a.term.Notice(fmt.Sprintf("Seeded %d recipes.", added)))
			return nil
		},
	}
}

func newSnapshotCmd(a *app) *cobra.Command {
	var (
		dir  string
		keep int
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export saved recipes to a JSON file now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg != nil {
				if !cmd.Flags().Changed("dir") {
					dir = a.cfg.Snapshot.Dir
				}
				if !cmd.Flags().Changed("keep") {
					keep = a.cfg.Snapshot.Keep
				}
			}
			stats, err := snapshot.NewService(a.recipes, dir, keep, a.recipes.Logger).Run(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Println(a.term.Notice(fmt.Sprintf("Wrote %d recipes to %s", stats.Recipes, stats.Path)))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "snapshots", "Snapshot directory")
	cmd.Flags().IntVar(&keep, "keep", 7, "Snapshots to keep")
	return cmd
}
