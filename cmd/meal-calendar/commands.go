package main

import (
	"fmt"
	"strings"
	"time"

	"meal-calendar/internal/auth"
	"meal-calendar/internal/calendar"
	"meal-calendar/internal/database"
	"meal-calendar/internal/metrics"

	"github.com/spf13/cobra"
)

func newSearchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "search <query>",
		Short:   "Search recipes and add the results to the catalog",
		Example: `  meal-calendar search chicken curry`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			results, err := rt.app.SearchRecipes(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printRecipes(cmd.OutOrStdout(), results)
		},
	}
}

func newAssignCmd(c *cli) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "assign <day> <meal> <recipe-id>",
		Short:   "Put a catalog recipe on the calendar",
		Example: `  meal-calendar assign monday dinner b79327d05b8e5b838ad6cfd9576b30b6`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, meal, err := parseSlot(args[0], args[1])
			if err != nil {
				return err
			}

			rt, err := setup(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			week, err := rt.app.Assign(cmd.Context(), c.user, day, meal, args[2])
			if err != nil {
				return err
			}
			return writeWeek(cmd.OutOrStdout(), format, week)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")
	return cmd
}

func newClearCmd(c *cli) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "clear <day> <meal>",
		Short: "Empty a calendar slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, meal, err := parseSlot(args[0], args[1])
			if err != nil {
				return err
			}

			rt, err := setup(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			week, err := rt.app.Clear(cmd.Context(), c.user, day, meal)
			if err != nil {
				return err
			}
			return writeWeek(cmd.OutOrStdout(), format, week)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")
	return cmd
}

func newWeekCmd(c *cli) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the calendar",
		Example: `  meal-calendar week
  meal-calendar week --user alice --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			week, err := rt.app.Week(cmd.Context(), c.user)
			if err != nil {
				return err
			}
			return writeWeek(cmd.OutOrStdout(), format, week)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")
	return cmd
}

func newShoppingListCmd(c *cli) *cobra.Command {
	var consolidate bool

	cmd := &cobra.Command{
		Use:   "shopping-list",
		Short: "Print the ingredient lines of every planned meal",
		Long: `Prints the shopping list for the calendar. Lines are printed as the
recipes list them, duplicates included. With --consolidate the list is
merged by Gemini, which requires GEMINI_API_KEY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			var items []string
			if consolidate {
				items, err = rt.app.ConsolidatedShoppingList(cmd.Context(), c.user)
				if err != nil {
					return err
				}
			} else {
				list, err := rt.app.ShoppingList(cmd.Context(), c.user)
				if err != nil {
					return err
				}
				items = list.Items
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "Nothing planned yet.")
				return nil
			}
			for _, item := range items {
				fmt.Fprintf(out, "- %s\n", item)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&consolidate, "consolidate", false, "Merge duplicate items with the language model")
	return cmd
}

func newImportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "import <url>",
		Short:   "Clip a recipe from a web page into the catalog",
		Example: `  meal-calendar import https://example.com/recipes/lentil-soup`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			r, err := rt.app.ImportURL(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %q as %s (%d ingredients)\n", r.Label, r.ID, len(r.IngredientLines))
			return nil
		},
	}
}

func newPublishCmd(c *cli) *cobra.Command {
	var publish bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Post the week to Ghost",
		Long: `Renders the calendar as HTML and creates a Ghost post from it. The post
is a draft unless --publish is given. Requires GHOST_API_URL and
GHOST_ADMIN_API_KEY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			post, err := rt.app.PublishWeek(cmd.Context(), c.user, publish)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s post %q %s\n", post.Status, post.Title, post.URL)
			return nil
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish immediately instead of saving a draft")
	return cmd
}

func newTokenCmd(c *cli) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token for --user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, err := auth.NewIssuer(c.cfg.APISigningKey, ttl)
			if err != nil {
				return err
			}
			token, err := issuer.Issue(c.user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "How long the token stays valid")
	return cmd
}

func newMetricsCleanupCmd(c *cli) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "metrics-cleanup",
		Short: "Delete execution metrics older than --days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.NewDB(c.cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer db.Close()

			n, err := metrics.NewStore(db.SQL).Cleanup(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d metrics\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Keep metrics from this many days")
	return cmd
}

func parseSlot(dayArg, mealArg string) (calendar.Day, calendar.Meal, error) {
	day, err := calendar.ParseDay(dayArg)
	if err != nil {
		return 0, 0, err
	}
	meal, err := calendar.ParseMeal(mealArg)
	if err != nil {
		return 0, 0, err
	}
	return day, meal, nil
}
