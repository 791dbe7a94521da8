// Package authcore is an embeddable authentication and session-management
// core: credential lifecycle (signup, login, external/federated login,
// logout, account deletion), opaque session-key issuance and lookup, and a
// stable domain error taxonomy over pluggable backends.
//
// The package is designed for concurrent server workloads: Service methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Service], [Builder], [Config],
// the [UserStore] and [SessionStore] contracts, and value types. Internal
// coordination (audit dispatch, metrics counters, key generation) lives
// under internal/ and is never exported. Backend adapters live under store/
// (durable user persistence) and session/ (the ephemeral cache).
//
// # What this package must NOT do
//
//   - Manage transport. The caller owns cookies, headers, and routing; the
//     Service only ever exchanges a session-key string and typed errors.
//   - Cache user records. The user store is the single source of truth, and
//     authentication is re-checked against the session cache on every call.
//   - Decompose backend faults. Adapter-specific failures are classified
//     once, at the adapter, into the sentinels in errors.go.
//
// # Error contract
//
// All fallible operations return errors matchable with errors.Is against
// the sentinels in errors.go. Validation failures additionally carry a
// [ValidationError] retrievable with errors.As.
package authcore
