// Package authclient is the client side session and access-control core of the
// SkillSphere web client. It keeps the client's belief about who is logged in,
// persists the issued credential, gates views by role and reports outcomes
// through short lived notifications.
//
// Credential persistence:
//   - Cache keeps a single named value mirrored between durable Storage and
//     memory. Writes are computed from the in-memory value (Update) and written
//     through; storage failures are logged and the cache keeps working in memory.
//
// Session state:
//   - SessionStore derives the current user from the persisted credential. The
//     credential is the only writable edge: Login, Logout and Hydrate all funnel
//     through the credential cache and the user is recomputed on every change.
//   - Session mutations are generation stamped so a slow Login response cannot
//     re-authenticate a user that logged out while the request was in flight.
//
// Access gating:
//   - Guard turns the session into a render decision (placeholder, redirect to
//     login, redirect to the default location, render). Credentials are decoded,
//     never verified, so the guard is UX gating only. The auth service must
//     enforce authorization on every request.
//
// Notifications:
//   - NotificationBus holds an ordered set of transient messages, each removed by
//     its own timer after the configured TTL.
package authclient
