// Package tokenstore holds the access and refresh credentials of the
// current user.
//
// The Store is the single owner of the credential pair. Reads are served
// synchronously from memory; every mutation writes through to a Backend
// that keeps two named entries, "access_token" and "refresh_token", so the
// session survives process restarts.
//
// # Backends
//
//   - FileBackend: one 0600 file per entry under ~/.config/stockportal/credentials
//   - MemoryBackend: process-local, used in tests and with --storage memory
//   - RedisBackend: shared storage through go-redis
//
// # Invariants
//
// The store is all-or-nothing. Set requires both values, SetAccessOnly is
// only valid while a refresh credential is held, and Load discards a
// half-present pair. Credential values are never logged.
//
// # Usage
//
//	backend, err := tokenstore.NewFileBackend("")
//	store := tokenstore.New(backend)
//	if err := store.Load(ctx); err != nil {
//	    return err
//	}
//	if creds, ok := store.Get(); ok {
//	    // creds.Access, creds.Refresh
//	}
package tokenstore
