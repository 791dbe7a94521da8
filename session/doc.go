// Package session provides the ephemeral session-cache backends: a
// Redis-backed [Store] for deployments and an in-process [MemoryStore] for
// tests and single-binary embedding.
//
// Both backends satisfy the authcore SessionStore contract: a key maps to
// exactly one user id until it expires or is removed, absence is reported
// through an ok flag rather than an error, and a per-user reverse index
// allows all of a user's sessions to be invalidated together.
package session
