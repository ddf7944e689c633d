package repository

import (
	"database/sql"

	"github.com/okian/outwit/pkg/logger"
)

// Option applies a configuration option to the BunStore.
type Option func(*BunStore)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(s *BunStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSnapshotTxOptions sets the transaction options Snapshot reads under.
// Postgres stores use a read-only repeatable-read transaction.
func WithSnapshotTxOptions(opts *sql.TxOptions) Option {
	return func(s *BunStore) {
		s.snapshotTx = opts
	}
}
