package cmd

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"oauthkit/internal/cli"
	"oauthkit/internal/config"
	"oauthkit/pkg/oauth"
)

var (
	authProfile    string
	authConfigPath string
	authQuiet      bool
)

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage OAuth tokens for configured profiles",
	Long: `Manage OAuth tokens for the profiles in config.yaml.

The auth command group provides subcommands to log in, log out, check
status, and refresh tokens for the providers oauthkit talks to.

Examples:
  oauthkit auth login                    # Login to the default profile
  oauthkit auth login --profile spotify  # Login to a specific profile
  oauthkit auth status                   # Show authentication status
  oauthkit auth status --all             # Show status for every profile
  oauthkit auth logout                   # Drop the default profile's token
  oauthkit auth logout --all             # Drop all cached tokens
  oauthkit auth refresh                  # Force a token refresh
  oauthkit auth whoami                   # Show current identity`,
}

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear cached tokens",
	Long: `Clear cached OAuth tokens.

This command removes cached tokens, requiring a new login before the
next authenticated request.

Examples:
  oauthkit auth logout                   # Logout from the default profile
  oauthkit auth logout --profile backend # Logout from a specific profile
  oauthkit auth logout --all             # Clear tokens for every profile
  oauthkit auth logout --all --yes       # Clear all without confirmation`,
	RunE: runAuthLogout,
}

// authRefreshCmd represents the auth refresh command
var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force a token refresh",
	Long: `Force a refresh of the cached token.

Commands refresh expired tokens on their own; this forces one ahead of
expiry, which helps when a token was invalidated server-side.

Examples:
  oauthkit auth refresh                    # Refresh the default profile
  oauthkit auth refresh --profile backend  # Refresh a specific profile`,
	RunE: runAuthRefresh,
}

// Logout-specific flags
var (
	logoutAll bool
	logoutYes bool
)

// authPrint prints output only if the --quiet flag is not set.
func authPrint(format string, args ...any) {
	if !authQuiet {
		fmt.Printf(format, args...)
	}
}

// authPrintln prints a line only if the --quiet flag is not set.
func authPrintln(a ...any) {
	if !authQuiet {
		fmt.Println(a...)
	}
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)
	authCmd.AddCommand(authWhoamiCmd)

	authCmd.PersistentFlags().StringVarP(&authProfile, "profile", "p", "", "Profile to operate on (default: the configured default)")
	authCmd.PersistentFlags().StringVar(&authConfigPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
	authCmd.PersistentFlags().BoolVarP(&authQuiet, "quiet", "q", false, "Suppress non-essential output")

	authLogoutCmd.Flags().BoolVar(&logoutAll, "all", false, "Clear tokens for every profile")
	authLogoutCmd.Flags().BoolVarP(&logoutYes, "yes", "y", false, "Skip confirmation prompt for --all")
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings(authConfigPath)
	if err != nil {
		return err
	}

	if logoutAll {
		return logoutAllProfiles(settings)
	}

	name, profile, err := settings.SelectProfile(authProfile)
	if err != nil {
		return err
	}

	cachePath := config.ProfileCachePath(authConfigPath, name, profile)
	if err := oauth.RemoveCache(cachePath); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}

	authPrint("Logged out from profile %q\n", name)
	return nil
}

// logoutAllProfiles clears the cache of every profile that has one,
// asking for confirmation first unless --yes was given.
func logoutAllProfiles(settings config.Settings) error {
	var stored []string
	for name, profile := range settings.Profiles {
		if oauth.TokenFromCache(config.ProfileCachePath(authConfigPath, name, profile)) != nil {
			stored = append(stored, name)
		}
	}
	sort.Strings(stored)

	if len(stored) == 0 {
		authPrintln("No stored tokens to clear.")
		return nil
	}

	if !logoutYes {
		fmt.Printf("The following %d token(s) will be cleared:\n", len(stored))
		for _, name := range stored {
			fmt.Printf("  - %s\n", name)
		}
		fmt.Print("\nAre you sure you want to clear all tokens? [y/N]: ")

		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	for _, name := range stored {
		cachePath := config.ProfileCachePath(authConfigPath, name, settings.Profiles[name])
		if err := oauth.RemoveCache(cachePath); err != nil {
			return fmt.Errorf("failed to clear token for %q: %w", name, err)
		}
	}

	authPrint("Cleared %d stored token(s).\n", len(stored))
	return nil
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	resolved, err := resolveProfile()
	if err != nil {
		return err
	}
	if err := ensureEndpoints(ctx, &resolved); err != nil {
		return err
	}

	if resolved.Profile.Flow == config.FlowClientCreds {
		client, err := oauth.NewClientCredsClient(resolved.Creds, resolved.Endpoints, clientOptions(resolved)...)
		if err != nil {
			return err
		}
		authPrint("Requesting a fresh token for profile %q...\n", resolved.Name)
		if err := client.RequestToken(ctx); err != nil {
			return cli.ClassifyAuthError(err, resolved.Name)
		}
		authPrint("Token refreshed. Expires %s.\n", describeExpiry(client.CurrentToken()))
		return nil
	}

	client, err := newCodeFlowClient(resolved)
	if err != nil {
		return err
	}

	token := client.CurrentToken()
	if token == nil {
		return &cli.AuthRequiredError{Profile: resolved.Name}
	}
	if !token.CanReauth() {
		// Nothing to refresh with; only a new login can help.
		return &cli.AuthRequiredError{Profile: resolved.Name}
	}

	authPrint("Refreshing token for profile %q...\n", resolved.Name)
	if err := client.RefreshToken(ctx, token.RefreshToken); err != nil {
		return cli.ClassifyAuthError(err, resolved.Name)
	}

	authPrint("Token refreshed. Expires %s.\n", describeExpiry(client.CurrentToken()))
	return nil
}
