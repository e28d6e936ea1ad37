// Package logging provides the subsystem-tagged logger used across
// stockportal.
//
// It is a thin layer over Go's standard slog package: every entry carries a
// subsystem attribute so output can be filtered per component, and an
// optional error attribute.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelWarn, os.Stderr)
//
//	logging.Info("TokenStore", "Loaded credentials from %s", dir)
//	logging.Debug("Refresh", "State %s -> %s", from, to)
//	logging.Error("API", err, "Prediction request failed")
//
// InitForCLI also installs the handler as the slog default, so packages
// that emit structured SECURITY_AUDIT events through slog directly share
// the same output and level filtering. Credential values are never passed
// to the logger; only events and metadata are.
//
// # Subsystems
//
//   - Bootstrap: command startup and wiring
//   - Config: configuration loading and validation
//   - TokenStore: credential persistence
//   - Refresh: renewal coordination
//   - Session: session state transitions
//   - Router: route guard evaluation and navigation
//   - Auth: login, logout and registration flows
//   - API: remote service calls
//   - MockServer: the local mock portal service
//
// All functions are safe for concurrent use.
package logging
