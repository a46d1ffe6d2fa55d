package cmd

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"oauthkit/internal/config"
	"oauthkit/pkg/oauth"
	pkgstrings "oauthkit/pkg/strings"
)

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long: `Show the authentication status of a profile.

Status reads the cached token without contacting the provider, so it
works offline and never triggers a login or refresh.

Examples:
  oauthkit auth status                    # Status of the default profile
  oauthkit auth status --profile spotify  # Status of a specific profile
  oauthkit auth status --all              # One row per configured profile`,
	RunE: runAuthStatus,
}

var statusAll bool

func init() {
	authStatusCmd.Flags().BoolVar(&statusAll, "all", false, "Show status for every configured profile")
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings(authConfigPath)
	if err != nil {
		return err
	}

	if statusAll {
		printStatusTable(cmd, settings)
		return nil
	}

	name, profile, err := settings.SelectProfile(authProfile)
	if err != nil {
		return err
	}

	printProfileStatus(name, profile)
	return nil
}

// printProfileStatus renders the detailed view for a single profile.
func printProfileStatus(name string, profile config.Profile) {
	cachePath := config.ProfileCachePath(authConfigPath, name, profile)
	token := oauth.TokenFromCache(cachePath)

	fmt.Printf("Profile:  %s\n", name)
	fmt.Printf("Flow:     %s\n", profile.Flow)
	fmt.Printf("Status:   %s\n", statusLabel(token))

	if token != nil {
		fmt.Printf("Expires:  %s\n", describeExpiry(token))
		fmt.Printf("Refresh:  %s\n", refreshLabel(token))
		if len(token.Scopes) > 0 {
			fmt.Printf("Scopes:   %s\n", token.Scopes.String())
		}
	}
	if profile.Issuer != "" {
		fmt.Printf("Issuer:   %s\n", profile.Issuer)
	}
	fmt.Printf("Cache:    %s\n", cachePath)

	if token == nil {
		fmt.Printf("\nRun %s to authenticate.\n", text.FgHiBlack.Sprintf("oauthkit auth login --profile %s", name))
	}
}

// printStatusTable renders one row per configured profile.
func printStatusTable(cmd *cobra.Command, settings config.Settings) {
	names := make([]string, 0, len(settings.Profiles))
	for name := range settings.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"PROFILE", "FLOW", "STATUS", "EXPIRES", "REFRESH", "ISSUER"})

	for _, name := range names {
		profile := settings.Profiles[name]
		token := oauth.TokenFromCache(config.ProfileCachePath(authConfigPath, name, profile))

		display := name
		if name == settings.DefaultProfile {
			display = name + " (default)"
		}

		expires := ""
		if token != nil {
			expires = describeExpiry(token)
		}

		// Profiles with pinned endpoints have no issuer; show where
		// tokens come from instead.
		issuer := profile.Issuer
		if issuer == "" {
			issuer = profile.TokenURL
		}

		t.AppendRow(table.Row{
			display,
			profile.Flow,
			statusLabel(token),
			expires,
			refreshLabel(token),
			pkgstrings.Truncate(issuer, pkgstrings.DefaultCellMaxLen),
		})
	}

	t.Render()
}

// statusLabel classifies a cached token into a colored status string.
func statusLabel(token *oauth.Token) string {
	switch {
	case token == nil:
		return text.FgYellow.Sprint("Not authenticated")
	case !token.IsExpired():
		return text.FgGreen.Sprint("Authenticated")
	case token.CanReauth():
		return text.FgYellow.Sprint("Expired")
	default:
		return text.FgRed.Sprint("Expired")
	}
}

// refreshLabel says whether an expired token can still recover on its own.
func refreshLabel(token *oauth.Token) string {
	if token == nil {
		return ""
	}
	if token.CanReauth() {
		return "Available"
	}
	return "Not available"
}
