// Package vault abstracts the external secure-secret store used to hold the
// legacy database password. Backends may be the OS keychain or an in-memory
// map for tests; absence of a secret is not an error.
package vault

import "context"

type Vault interface {
	// Get returns the secret stored under key, or ok=false when no secret
	// exists. Backend failures are returned as errors.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	Set(ctx context.Context, key, value string) error

	// Delete removes the secret under key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}
