// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth turns user secrets into storable credentials and manages
// reset tokens.
//
// # Credentials
//
// Two credential kinds share the Hasher contract:
//   - PasswordHasher - PBKDF2-HMAC-SHA512, 10000 iterations, 128 hex chars
//   - PinHasher - PBKDF2-HMAC-SHA512, 1000 iterations, 64 hex chars
//
// The kind of a stored hash is inferred from its length by Resolver. Passcode
// hides both kinds behind IsValid, Matches and ComputeHash. An unrecognized
// kind is reported as KindUnset and never as an error; the only hard error
// from hashing is ErrInvalidInput for an empty salt or secret.
//
// # Reset Tokens
//
// ResetTokenManager issues opaque tokens, stores only their SHA-256 digest
// through a ResetTokenRepository, and invalidates every token of a user
// after a credential change.
//
// # Services
//
// CredentialService coordinates the user store, Passcode and the reset token
// manager for reset, change and verification flows. Services are created
// with New* constructors that validate dependencies.
package auth
