package commands

import (
	"log/slog"

	"orderharvest/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Opens a browser window to sign in manually, then verifies the session.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		// signing in needs a window, MFA prompts do not work headless
		session, client, err := openStorefront(cmd.Context(), cfg, false)
		if err != nil {
			serviceutil.Fatal("failed to launch browser session", err)
		}
		defer session.Close()

		err = client.AwaitManualAuthentication(cmd.Context())
		if err != nil {
			serviceutil.Fatal("sign-in did not complete", err)
		}
		slog.Info("signed in, the session lives in the browser profile", "profile", cfg.ProfileDir)
	},
}
