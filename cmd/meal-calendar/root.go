package main

import (
	"fmt"

	"meal-calendar/internal/config"
	"meal-calendar/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultUser = "default_user"

// cli carries what every subcommand needs once the root pre-run has loaded it.
type cli struct {
	cfg     *config.Config
	user    string
	restore func()
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:   "meal-calendar",
		Short: "Plan a week of meals and build the shopping list",
		Long: `meal-calendar keeps a weekly calendar of breakfast, lunch and dinner
for each user, backed by recipes found through the Edamam search API.

The shopping list is the concatenation of the ingredient lines of every
planned meal, Sunday to Saturday, breakfast to dinner.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.NewFromEnv()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.restore = logging.Install(logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = zap.L().Sync()
			if c.restore != nil {
				c.restore()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&c.user, "user", "u", defaultUser, "User whose calendar to work on")

	cmd.AddCommand(
		newServeCmd(c),
		newSearchCmd(c),
		newAssignCmd(c),
		newClearCmd(c),
		newWeekCmd(c),
		newShoppingListCmd(c),
		newImportCmd(c),
		newPublishCmd(c),
		newTokenCmd(c),
		newMetricsCleanupCmd(c),
	)

	return cmd
}
