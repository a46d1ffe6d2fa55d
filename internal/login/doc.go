// Package login runs the interactive half of the authorization-code
// flows: it serves the loopback redirect URI, sends the resource owner
// to the provider, and feeds the callback into a flow client.
//
// # Flow
//
// A Flow wraps a pkg/oauth authorization-code client and drives one
// login end to end:
//
//	flow := login.New(client, redirectURI, login.Options{})
//	token, err := flow.Run(ctx)
//
// Run builds the authorize URL, starts a CallbackServer bound to the
// redirect URI, opens the system browser (or prints the URL with
// --no-browser semantics), waits for the provider to redirect back,
// and exchanges the authorization code. The resulting token lives in
// the flow client and its token cache.
//
// # Callback server
//
// The redirect URI must point at a loopback host with an explicit
// port, matching the URI registered with the provider. The server
// accepts exactly one callback, renders a small HTML page telling the
// user to return to the terminal, and shuts itself down.
package login
