package database

// Package database owns the single connection to the encrypted SQLCipher
// store and the crash-safe protocol for rotating its secret or toggling
// encryption on and off.
