package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/microearn/backend/internal/database"
	"github.com/microearn/backend/internal/models"
	"github.com/microearn/backend/internal/tasks"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply queue and application migrations, then exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		pool, err := database.Open(cmd.Context(), cfg.Database.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.Migrate(cmd.Context(), pool); err != nil {
			return err
		}
		logger.Info("migrations applied")
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a password-login admin account",
	RunE:  runCreateAdmin,
}

var seedTasksCmd = &cobra.Command{
	Use:   "seed-tasks",
	Short: "Create sample tasks funded by a buyer's coins",
	RunE:  runSeedTasks,
}

func init() {
	rootCmd.AddCommand(migrateCmd, createAdminCmd, seedTasksCmd)

	createAdminCmd.Flags().String("email", "", "admin email (required)")
	createAdminCmd.Flags().String("password", "", "admin password, at least 8 characters (required)")
	createAdminCmd.Flags().Int64("coins", 10000, "coins granted through the ledger")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	seedTasksCmd.Flags().String("buyer-email", "", "email of the funding buyer (required)")
	_ = seedTasksCmd.MarkFlagRequired("buyer-email")
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	coins, _ := cmd.Flags().GetInt64("coins")

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	acc, err := a.auth.CreateAdmin(cmd.Context(), email, password, coins)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "admin %s created with %d coins (id %s)\n", acc.Email, acc.Coins, acc.ID)
	return nil
}

// sampleTasks are created through the normal funded path.
var sampleTasks = []tasks.CreateParams{
	{
		Title:                  "Follow our page and share the latest post",
		Description:            "Follow the page, share the pinned post publicly and keep it up for 7 days.",
		Category:               "social_media",
		SubmissionInstructions: "Attach a screenshot of the shared post showing your profile name.",
		CoinsPerWorker:         5,
		RequiredWorkers:        20,
	},
	{
		Title:                  "Write an honest app store review",
		Description:            "Install the app, use it for at least 10 minutes and leave a review.",
		Category:               "app_review",
		SubmissionInstructions: "Paste the review text and attach a screenshot of it on the store.",
		CoinsPerWorker:         15,
		RequiredWorkers:        10,
	},
	{
		Title:                  "Tag product photos",
		Description:            "Tag 50 product photos with colour and material using the shared sheet.",
		Category:               "data_entry",
		SubmissionInstructions: "Link the finished rows in the sheet.",
		CoinsPerWorker:         25,
		RequiredWorkers:        4,
	},
}

func runSeedTasks(cmd *cobra.Command, _ []string) error {
	email, _ := cmd.Flags().GetString("buyer-email")

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	buyer, err := a.accounts.GetByEmail(cmd.Context(), email)
	if err != nil {
		return fmt.Errorf("find buyer %s: %w", email, err)
	}
	if buyer.Role != models.RoleBuyer {
		return fmt.Errorf("%s is a %s, not a buyer", email, buyer.Role)
	}
	actor := models.Actor{ID: buyer.ID, Role: buyer.Role}
	for _, p := range sampleTasks {
		t, err := a.tasks.Create(cmd.Context(), actor, p)
		if err != nil {
			return fmt.Errorf("seed %q: %w", p.Title, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created task %s (%d coins escrowed)\n", t.ID, t.EscrowedCoins)
	}
	return nil
}
