package app

import "errors"

var ErrValidation = errors.New("app: validation failed")

// legacyVaultKey is where earlier releases stashed the database password in
// the OS secret store.
const legacyVaultKey = "database-password"
