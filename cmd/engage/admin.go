package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mroshb/engage_app/internal/reports"
	"github.com/mroshb/engage_app/internal/services"
	"github.com/mroshb/engage_app/pkg/logger"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(exportReceiptsCmd)
	rootCmd.AddCommand(resetGoalsCmd)
	rootCmd.AddCommand(setAdminCmd)

	exportReceiptsCmd.Flags().StringP("out", "o", "receipts.xlsx", "Output .xlsx path")
	exportReceiptsCmd.Flags().String("since", "", "Only receipts confirmed on or after this date (YYYY-MM-DD)")
	setAdminCmd.Flags().Bool("revoke", false, "Remove the admin flag instead of granting it")
}

var exportReceiptsCmd = &cobra.Command{
	Use:   "export-receipts",
	Short: "Write confirmed checkout receipts to an Excel workbook",
	Args:  cobra.NoArgs,
	RunE:  runExportReceipts,
}

var resetGoalsCmd = &cobra.Command{
	Use:   "reset-goals",
	Short: "Clear yesterday's goal state for every user",
	Long: `Runs one bulk reset of every goal whose completion or skip is stamped
with a previous day. Listing goals already resets them lazily, so this is
only needed when a scheduled reset is wanted, for example from cron.`,
	Args: cobra.NoArgs,
	RunE: runResetGoals,
}

var setAdminCmd = &cobra.Command{
	Use:   "set-admin USER_ID",
	Short: "Grant or revoke the store admin flag",
	Long: `Marks a user as a store admin, allowed to confirm checkouts. The
profile is created first if the user has never signed in.`,
	Args: cobra.ExactArgs(1),
	RunE: runSetAdmin,
}

func runExportReceipts(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	sinceRaw, _ := cmd.Flags().GetString("since")

	var since time.Time
	if sinceRaw != "" {
		parsed, err := time.Parse("2006-01-02", sinceRaw)
		if err != nil {
			return fmt.Errorf("invalid --since %q: want YYYY-MM-DD", sinceRaw)
		}
		since = parsed
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	receipts, err := a.checkouts.ExportReceipts(ctx, since)
	if err != nil {
		return err
	}
	if err := reports.SaveReceipts(out, receipts); err != nil {
		return err
	}

	logger.Info("Receipts exported", "path", out, "count", len(receipts))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d receipts to %s\n", len(receipts), out)
	return nil
}

func runResetGoals(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	reset, err := a.goals.ResetAllStale(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Reset %d goals\n", reset)
	return nil
}

func runSetAdmin(cmd *cobra.Command, args []string) error {
	revoke, _ := cmd.Flags().GetBool("revoke")

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	isAdmin, err := setAdmin(ctx, a.profiles, args[0], !revoke)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "User %s admin: %t\n", args[0], isAdmin)
	return nil
}

// setAdmin applies the flag and reads it back from storage.
func setAdmin(ctx context.Context, profiles *services.ProfileService, userID string, grant bool) (bool, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return false, fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	if _, err := profiles.EnsureProfile(ctx, userID, ""); err != nil {
		return false, err
	}
	if err := profiles.SetAdmin(ctx, userID, grant); err != nil {
		return false, err
	}
	return profiles.IsAdmin(ctx, userID)
}
