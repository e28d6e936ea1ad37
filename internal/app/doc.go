// Package app bootstraps stockportal: it loads configuration, sets up
// logging and wires the credential pipeline together.
//
// # Wiring
//
// InitializeServices builds the components in dependency order:
//
//  1. Credential storage backend (file, memory or redis) and the token store
//  2. Session state over the store
//  3. Portal API client (raw) which doubles as the renewer
//  4. Refresh coordinator, with the session as its failure listener
//  5. Request pipeline (request id, authorizer, coordinator) and the
//     authenticated API client
//  6. Router bound to the session, and the auth flows
//
// Views are registered on the router by the caller, which owns the output.
//
// # Lifecycle
//
//	application, err := app.NewApplication(app.NewConfig(logging.LevelWarn, configPath))
//	if err != nil {
//		return err
//	}
//	defer application.Close()
//	if err := application.Init(ctx); err != nil {
//		return err
//	}
//
// Init restores a previous session from storage. Close releases backend
// connections.
//
// RunMockServer serves the in-process mock portal until interrupted; it
// backs the mock-server command.
package app
