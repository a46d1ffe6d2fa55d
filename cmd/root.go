package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"oauthkit/internal/cli"
	"oauthkit/pkg/logging"
)

// Exit codes for CLI commands. These follow common conventions so
// scripts can distinguish "run oauthkit auth login" from a plain failure.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates authentication is required but not available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the authorization flow failed.
	ExitCodeAuthFailed = 3
)

var rootLogLevel string

// rootCmd represents the base command for the oauthkit application.
var rootCmd = &cobra.Command{
	Use:   "oauthkit",
	Short: "Manage OAuth tokens for command-line API access",
	Long: `oauthkit acquires, caches, and refreshes OAuth 2.0 tokens for APIs
that protect themselves with bearer authentication.

Providers are configured as named profiles in config.yaml. Each profile
selects a grant: authorization code for confidential clients, PKCE for
public ones, or client credentials for machine access. Tokens live in
per-profile cache files and are refreshed transparently when commands
need them.`,
	// SilenceUsage prevents Cobra from printing the usage message on
	// errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(rootLogLevel)
		if err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		logging.InitForCLI(level, os.Stderr)
		return nil
	},
}

// SetVersion sets the version for the root command. Called from the
// main package to inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application. It runs the
// root command and maps handled errors onto semantic exit codes.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "oauthkit version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error
// type. This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var authRequired *cli.AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var authExpired *cli.AuthExpiredError
	if errors.As(err, &authExpired) {
		return ExitCodeAuthRequired
	}

	var authFailed *cli.AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "warn", "Log verbosity: debug, info, warn, or error")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
