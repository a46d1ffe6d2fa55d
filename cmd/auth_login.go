package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"oauthkit/internal/cli"
	"oauthkit/internal/config"
	"oauthkit/internal/login"
	"oauthkit/pkg/oauth"
)

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against a profile's provider",
	Long: `Authenticate against the provider configured for a profile.

For authorization code and PKCE profiles this opens a browser, waits
for the provider to redirect back, and exchanges the returned code for
a token. For client credentials profiles it requests a token directly.

The token is cached under the configuration directory, so subsequent
commands reuse it until it expires.

Examples:
  oauthkit auth login                     # Login to the default profile
  oauthkit auth login --profile spotify   # Login to a specific profile
  oauthkit auth login --no-browser        # Print the URL instead of opening a browser`,
	RunE: runAuthLogin,
}

var loginNoBrowser bool

func init() {
	authLoginCmd.Flags().BoolVar(&loginNoBrowser, "no-browser", false, "Print the authorization URL instead of opening a browser")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	resolved, err := resolveProfile()
	if err != nil {
		return err
	}
	if err := ensureEndpoints(ctx, &resolved); err != nil {
		return err
	}

	if resolved.Profile.Flow == config.FlowClientCreds {
		return runClientCredsLogin(cmd, resolved)
	}

	client, err := newCodeFlowClient(resolved)
	if err != nil {
		return err
	}

	// Progress goes to stderr so stdout stays clean for scripting.
	var out io.Writer = os.Stderr
	if authQuiet {
		out = io.Discard
	}

	flow := login.New(client, resolved.Auth.RedirectURI, login.Options{
		NoBrowser: loginNoBrowser,
		Out:       out,
	})

	token, err := flow.Run(ctx)
	if err != nil {
		return wrapLoginFailure(err, resolved.Name)
	}

	authPrint("Logged in to profile %q.\n", resolved.Name)
	authPrint("Token expires %s.\n", describeExpiry(token))
	if !token.CanReauth() {
		authPrintln("The provider granted no refresh token; log in again once it expires.")
	}
	return nil
}

func runClientCredsLogin(cmd *cobra.Command, resolved config.Resolved) error {
	client, err := oauth.NewClientCredsClient(resolved.Creds, resolved.Endpoints, clientOptions(resolved)...)
	if err != nil {
		return err
	}

	authPrint("Requesting token for profile %q...\n", resolved.Name)
	if err := client.RequestToken(cmd.Context()); err != nil {
		return cli.ClassifyAuthError(err, resolved.Name)
	}

	authPrint("Logged in to profile %q.\n", resolved.Name)
	authPrint("Token expires %s.\n", describeExpiry(client.CurrentToken()))
	return nil
}

// wrapLoginFailure maps a failed login to an auth failure so the
// process exits with the OAuth failure code. Provider errors get their
// precise classification; flow plumbing errors count as failures too.
func wrapLoginFailure(err error, profile string) error {
	if classified := cli.ClassifyAuthError(err, profile); classified != err {
		return classified
	}
	return &cli.AuthFailedError{Profile: profile, Reason: err}
}
