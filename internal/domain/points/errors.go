package points

import "errors"

// Sentinel kinds for catalog lookups.
var (
	ErrUnknownEventKind = errors.New("unknown event kind")
	ErrUnknownPlacement = errors.New("unknown placement")
)
