// Package password implements the credential hasher: Argon2id digests in
// PHC string format with a random per-hash salt, and constant-time
// verification that fails closed on malformed digests.
package password
