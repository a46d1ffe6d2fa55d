package login

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	"oauthkit/pkg/logging"
	"oauthkit/pkg/oauth"
)

// Client is the slice of a flow client the login needs. Both
// oauth.AuthCodeClient and oauth.AuthCodePKCEClient satisfy it.
type Client interface {
	AuthorizeURL() (string, error)
	ParseRedirect(rawURL string) (string, error)
	ExchangeCode(ctx context.Context, code string) error
	CurrentToken() *oauth.Token
}

// Options adjusts how Run interacts with the user.
type Options struct {
	// NoBrowser prints the authorize URL and reads the pasted redirect
	// URL from In instead of opening a browser and serving the
	// callback. For machines without a local browser.
	NoBrowser bool

	// Timeout bounds the wait for the callback. Zero means
	// CallbackTimeout.
	Timeout time.Duration

	// Out receives progress messages. Defaults to os.Stderr so tokens
	// and data output on stdout stay clean.
	Out io.Writer

	// In supplies the pasted redirect URL when NoBrowser is set.
	// Defaults to os.Stdin.
	In io.Reader

	// OpenBrowser overrides the system browser launcher.
	OpenBrowser func(url string) error
}

// Flow drives one interactive login against the provider.
type Flow struct {
	client      Client
	redirectURI string
	opts        Options
}

// New builds a Flow. The redirect URI must be the one the client's
// authorize URL carries, which is also the one registered with the
// provider.
func New(client Client, redirectURI string, opts Options) *Flow {
	if opts.Out == nil {
		opts.Out = os.Stderr
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = OpenBrowser
	}
	if opts.Timeout <= 0 {
		opts.Timeout = CallbackTimeout
	}
	return &Flow{client: client, redirectURI: redirectURI, opts: opts}
}

// Run executes the login end to end: authorize URL, user consent,
// callback, code exchange. On success the token is stored in the flow
// client and its cache, and returned for display.
func (f *Flow) Run(ctx context.Context) (*oauth.Token, error) {
	authURL, err := f.client.AuthorizeURL()
	if err != nil {
		return nil, err
	}

	var rawURL string
	if f.opts.NoBrowser {
		rawURL, err = f.promptRedirect(authURL)
	} else {
		rawURL, err = f.serveCallback(ctx, authURL)
	}
	if err != nil {
		return nil, err
	}

	code, err := f.client.ParseRedirect(rawURL)
	if err != nil {
		return nil, err
	}
	if err := f.client.ExchangeCode(ctx, code); err != nil {
		return nil, err
	}

	logging.Info("login", "authorization flow complete")
	return f.client.CurrentToken(), nil
}

// serveCallback opens the browser and waits for the provider to
// redirect back to the loopback server.
func (f *Flow) serveCallback(ctx context.Context, authURL string) (string, error) {
	server, err := NewCallbackServer(f.redirectURI)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	if err := server.Start(ctx); err != nil {
		return "", err
	}
	defer server.Stop()

	fmt.Fprintln(f.opts.Out, "Opening browser for authentication...")
	if err := f.opts.OpenBrowser(authURL); err != nil {
		logging.Debug("login", "browser launch failed: %v", err)
		fmt.Fprintln(f.opts.Out, "Could not open browser automatically.")
		fmt.Fprintf(f.opts.Out, "\nPlease open this URL in your browser:\n  %s\n\n", authURL)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(f.opts.Out))
	s.Suffix = " Waiting for the provider to redirect back..."
	s.Start()
	defer s.Stop()

	rawURL, err := server.Wait(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("timed out waiting for the authorization callback after %s", f.opts.Timeout)
		}
		return "", err
	}
	return rawURL, nil
}

// promptRedirect prints the authorize URL and reads back the redirect
// URL the provider sent the user to.
func (f *Flow) promptRedirect(authURL string) (string, error) {
	fmt.Fprintf(f.opts.Out, "Open this URL in your browser:\n\n  %s\n\n", authURL)
	fmt.Fprint(f.opts.Out, "Paste the full redirect URL here: ")

	line, err := bufio.NewReader(f.opts.In).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading redirect URL: %w", err)
	}
	rawURL := strings.TrimSpace(line)
	if rawURL == "" {
		return "", fmt.Errorf("no redirect URL entered")
	}
	return rawURL, nil
}
