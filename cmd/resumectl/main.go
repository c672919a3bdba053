// Command resumectl drives the portal's dashboard from a terminal. It runs the
// same controller the web portal uses, against the stores named by the
// environment (DATABASE_URL, OBJECT_STORE, IDENTITY_PROVIDER, ...).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"resume-portal/internal/shared/config"
	"resume-portal/internal/shared/telemetry"
)

var (
	emailFlag    string
	passwordFlag string
	verboseFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "resumectl",
	Short: "Manage resumes, credits and processing from the terminal",
	Long: `resumectl signs in with the portal's identity provider and runs one
dashboard action per invocation.

Credentials come from --email/--password or RESUMECTL_EMAIL/RESUMECTL_PASSWORD.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "error"
		if verboseFlag {
			level = "debug"
		}
		telemetry.SetLevel(level)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&emailFlag, "email", os.Getenv("RESUMECTL_EMAIL"), "account email")
	rootCmd.PersistentFlags().StringVar(&passwordFlag, "password", os.Getenv("RESUMECTL_PASSWORD"), "account password")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log to stderr")

	rootCmd.AddCommand(
		signupCmd,
		filesCmd,
		uploadCmd,
		deleteCmd,
		processCmd,
		processedCmd,
		creditsCmd,
		fetchCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	return config.Load()
}
