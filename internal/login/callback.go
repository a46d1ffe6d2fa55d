package login

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// CallbackTimeout is how long Run waits for the provider to redirect
// back before giving up on the login.
const CallbackTimeout = 5 * time.Minute

//go:embed templates/success.html
var callbackSuccessHTML string

//go:embed templates/error.html
var callbackErrorHTML string

// CallbackServer is a temporary local HTTP server for receiving the
// authorization callback. It serves the profile's registered redirect
// URI, accepts a single callback, then shuts down.
type CallbackServer struct {
	host string
	port string
	path string

	server      *http.Server
	listener    net.Listener
	redirectURI string
	resultCh    chan string
	errorCh     chan error
	once        sync.Once
}

// NewCallbackServer builds a server for the given redirect URI. The URI
// must use http on a loopback host with an explicit port; it has to
// match the redirect URI registered with the provider, so nothing about
// it is guessed. Port 0 binds an ephemeral port, and RedirectURI then
// reports the bound one.
func NewCallbackServer(redirectURI string) (*CallbackServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI: %w", err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("redirect URI must use http for a loopback callback, got %q", u.Scheme)
	}

	host := u.Hostname()
	switch host {
	case "localhost", "127.0.0.1", "::1":
	default:
		return nil, fmt.Errorf("redirect URI host %q is not a loopback address", host)
	}

	port := u.Port()
	if port == "" {
		return nil, fmt.Errorf("redirect URI needs an explicit port, got %q", redirectURI)
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	return &CallbackServer{
		host:     host,
		port:     port,
		path:     path,
		resultCh: make(chan string, 1),
		errorCh:  make(chan error, 1),
	}, nil
}

// Start binds the listener and begins serving the callback path. The
// server stops itself when the context is cancelled.
func (s *CallbackServer) Start(ctx context.Context) error {
	bindHost := s.host
	if bindHost == "localhost" {
		bindHost = "127.0.0.1"
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(bindHost, s.port))
	if err != nil {
		return fmt.Errorf("starting callback server on port %s: %w", s.port, err)
	}
	s.listener = listener
	s.port = fmt.Sprintf("%d", listener.Addr().(*net.TCPAddr).Port)
	s.redirectURI = fmt.Sprintf("http://%s%s", net.JoinHostPort(s.host, s.port), s.path)

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleCallback)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case s.errorCh <- err:
			default:
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RedirectURI returns the URI the server is actually listening on. It
// differs from the constructor argument only when port 0 was requested.
func (s *CallbackServer) RedirectURI() string {
	return s.redirectURI
}

// Wait blocks until the callback arrives, the server fails, or the
// context ends. It returns the full callback URL for ParseRedirect.
func (s *CallbackServer) Wait(ctx context.Context) (string, error) {
	select {
	case rawURL := <-s.resultCh:
		return rawURL, nil
	case err := <-s.errorCh:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Stop gracefully shuts down the callback server.
func (s *CallbackServer) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

// handleCallback accepts the first callback and rejects any repeat.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	var handled bool
	s.once.Do(func() {
		handled = true
		s.processCallback(w, r)
	})

	if !handled {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
	}
}

// processCallback renders the response page and delivers the callback
// URL. Called exactly once via sync.Once.
func (s *CallbackServer) processCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")

	query := r.URL.Query()

	// The page only distinguishes success from rejection. State and
	// code checking belong to the flow client, which sees the full URL.
	var tmpl *template.Template
	var data any
	if errCode := query.Get("error"); errCode != "" {
		tmpl = template.Must(template.New("error").Parse(callbackErrorHTML))
		data = map[string]string{
			"Error":       errCode,
			"Description": query.Get("error_description"),
		}
	} else {
		tmpl = template.Must(template.New("success").Parse(callbackSuccessHTML))
		data = map[string]string{}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}

	rawURL := s.redirectURI
	if r.URL.RawQuery != "" {
		rawURL += "?" + r.URL.RawQuery
	}
	select {
	case s.resultCh <- rawURL:
	default:
	}

	// Give the response time to flush before tearing the server down.
	go func() {
		time.Sleep(1 * time.Second)
		s.Stop()
	}()
}
