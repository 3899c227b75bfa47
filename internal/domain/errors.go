package domain

import "errors"

// ErrNoLocation means the account/location reference addressing upstream is
// not configured. It is the only error surfaced to clients before any store
// interaction.
var ErrNoLocation = errors.New("business location is not configured")
