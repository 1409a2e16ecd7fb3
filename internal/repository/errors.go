package repository

import "errors"

// ErrEmailExists is returned when an insert hits the unique email index.
var ErrEmailExists = errors.New("email already exists")

// ErrLinkExists is returned when an insert hits the unique
// (provider, provider_account_id) index.
var ErrLinkExists = errors.New("oauth account already linked")
