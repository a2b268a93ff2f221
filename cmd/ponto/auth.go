package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/ponto/internal/cli"
	"github.com/Veraticus/ponto/internal/config"
	"github.com/Veraticus/ponto/internal/sheets"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
	}

	cmd.AddCommand(authSheetsCmd())

	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authenticate with Google Sheets",
		Long: `Authenticate with Google Sheets using OAuth2.

This command will:
1. Open your browser to authenticate with Google
2. Save the refresh token in your system keyring

You'll need to run this once to set up the Google Sheets export.`,
		RunE: runAuthSheets,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")
	cmd.Flags().String("listen", "localhost:8080", "address of the local callback server")
	cmd.Flags().Bool("logout", false, "remove the saved refresh token")

	return cmd
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if logout, _ := cmd.Flags().GetBool("logout"); logout {
		if err := config.DeleteRefreshToken(); err != nil {
			return err
		}
		_, err := fmt.Fprintln(out, cli.FormatSuccess("Google Sheets token removed"))
		return err
	}

	clientID := viper.GetString("sheets.client_id")
	clientSecret := viper.GetString("sheets.client_secret")

	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		clientID = flagID
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		clientSecret = flagSecret
	}

	if clientID == "" {
		clientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	}

	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("OAuth2 credentials not found. Please set sheets.client_id and sheets.client_secret in config or use --client-id and --client-secret flags")
	}

	addr, _ := cmd.Flags().GetString("listen")
	slog.Info("Starting Google Sheets authentication", "callback", addr)

	token, err := sheets.AuthenticateInteractive(ctx, clientID, clientSecret, addr)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	if err := config.SaveRefreshToken(token.RefreshToken); err != nil {
		slog.Warn("Could not save refresh token to the keyring", "error", err)
		_, _ = fmt.Fprintln(out, cli.FormatWarning("Add this to your config.yaml instead:"))
		_, _ = fmt.Fprintf(out, "sheets:\n  refresh_token: %q\n", token.RefreshToken)
		return nil
	}

	_, err = fmt.Fprintln(out, cli.FormatSuccess("Google Sheets is now configured. Records will be appended after each run."))
	return err
}
