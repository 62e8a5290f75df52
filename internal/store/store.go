// Package store provides data persistence interfaces and implementations.
package store

import "macro-trader/internal/models"

// AccountStore defines the persistence contract consumed by the ledger.
// Save is called after every mutating operation; Archive durably keeps
// a full copy of the state under a distinct identity before a reset.
type AccountStore interface {
	// Load returns the stored account state, or (nil, nil) when no
	// state has been saved yet.
	Load() (*models.AccountState, error)
	Save(state *models.AccountState) error
	Archive(state *models.AccountState, identity string) error
	Close() error
}

// SnapshotStore records fetched macro snapshots for later inspection.
type SnapshotStore interface {
	SaveSnapshot(snap models.MacroSnapshot) error
}
