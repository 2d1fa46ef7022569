// Package state records the outcome of the most recent image transfer.
//
// After every session the shipper writes a Record describing what was sent,
// where, and how it ended. Tooling (and the operator) can read status.json to
// learn whether the board received the current build without scraping logs.
//
// # Usage
//
//	repo := state.NewFileRepository("/path/to/state/dir")
//
//	rec, err := repo.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	if rec.IsEmpty() {
//	    // nothing sent yet
//	}
//
// Records use snake_case JSON field names.
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
//
// See version.go for version constants that can be used programmatically.
package state
