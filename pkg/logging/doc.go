// Package logging provides structured logging for oauthkit commands,
// built on Go's standard slog package.
//
// Entries carry a timestamp, a level, a subsystem identifier for
// filtering, the message, and an optional error. Initialize once at
// startup and log through the level helpers:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("login", "authorization flow complete")
//	logging.Debug("config", "loaded configuration from %s", path)
//	logging.Error("auth", err, "token refresh failed")
//
// Subsystems in use: auth, config, login, whoami.
//
// Libraries that accept a *slog.Logger, like the oauth flow clients,
// take the shared logger from Logger().
package logging
