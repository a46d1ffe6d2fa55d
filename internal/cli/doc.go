// Package cli holds the error types shared by the oauthkit commands.
//
// Commands return these typed errors so the root command can translate
// them into semantic exit codes: 2 when authentication is required and
// 3 when an authorization flow failed. ClassifyAuthError maps the
// pkg/oauth errors onto them, and ClassifyConnectionError categorizes
// network failures for readable status output.
package cli
