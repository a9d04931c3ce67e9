// Package mcerrors defines the sentinel error taxonomy shared across the
// memory core. Callers use errors.Is against these sentinels; all wrapping
// call sites should use fmt.Errorf("...: %w", err) so the taxonomy survives
// at any call depth.
package mcerrors

import "errors"

var (
	// ErrIntegrity is returned when an append would violate a uniqueness or
	// ordering invariant (e.g. a colliding event_id).
	ErrIntegrity = errors.New("integrity violation")

	// ErrStoreUnavailable is returned when the storage backend cannot be
	// reached at all (as opposed to a degraded capability).
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrPolicyDenied is returned by the write policy gate or a tenant scope
	// check when a write or read is rejected by policy.
	ErrPolicyDenied = errors.New("policy denied")

	// ErrQuery marks a transient recall/index failure; callers may retry.
	ErrQuery = errors.New("query failed")

	// ErrEmbedding marks an embedder failure; writes proceed without an
	// embedding rather than failing.
	ErrEmbedding = errors.New("embedding failed")

	// ErrMigration marks a fatal schema migration failure; callers should
	// halt startup rather than continue against a partially migrated store.
	ErrMigration = errors.New("migration failed")

	// ErrBackendUnavailable marks a capability the active backend cannot
	// provide (e.g. atomic hard delete on the markdown backend). Forget
	// outcomes arising from this are marked degraded rather than failed.
	ErrBackendUnavailable = errors.New("backend capability unavailable")
)
