// Package auth implements the user account lifecycle for a web application:
// registration, credential verification, session establishment, email
// verification, and password-recovery token issuance.
//
// The center of the package is Flow, a small state machine moving a client
// between Anonymous, Authenticated(unverified), and Authenticated(verified).
// Authentication and verification are independent axes; signout always
// returns to Anonymous.
//
// Credentials:
//   - Bearer tokens are signed, self-contained JWTs carrying `{uid, exp}`,
//     validated purely by signature and expiry. Short default lifetime, an
//     extended one when remember-me is requested.
//   - The remember credential is a persistent cookie carrying an HMAC
//     snapshot of the password hash; it enables silent re-authentication and
//     dies with any password change.
//   - One-time tokens are random opaque strings bound to the user record,
//     proving receipt of an email link. They are consumed on use.
//
// Persistence goes through the UserStore contract; the bundled Bun
// repository provides per-record atomicity for saves and token rotation.
// Email delivery is out of process: the flow emits AfterSignup,
// SendVerification, and SendRecovery events through a Notifier and never
// waits on delivery.
package auth
