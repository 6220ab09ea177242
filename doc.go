// Package session provides observable state containers for app front ends:
// a session container that owns the current-user identity plus the
// in-flight/error status of auth operations, and an error-code translator
// that maps opaque provider codes to user-facing copy.
//
// Containers:
//   - Container is the single source of truth for "who is signed in". View
//     layers subscribe for read-only snapshots and invoke operations
//     (SignInWithEmail, SignOut, ...); every operation delegates to an
//     injected IdentityProvider and folds failures into LastError through
//     the Translator instead of surfacing provider errors to the view.
//   - The entitlement subpackage mirrors the same pattern for purchasable
//     products and subscription status.
//
// Activity sinks:
//   - ActivitySink is a light-weight tracking emitter used by the container
//     to describe sign-in, sign-up, sign-out, and phase-change events. Sinks
//     run best-effort (errors are logged) so you can forward to an analytics
//     pipeline without blocking the UI thread.
//
// Providers:
//   - IdentityProvider is the narrow contract a native auth SDK adapter must
//     satisfy. provider/localidp ships a bun-backed reference implementation
//     and provider/idtoken resolves SDK-issued ID tokens via JWKS.
package session
