// Package http routes parsed court protocol requests to the reservation and
// session services. It does not use net/http; requests and responses are the
// hand-framed types from the protocol package.
//
// The router exposes the following endpoints:
//   - POST /login: issues a session token. Body: {"username","password"}. Data:
//     {"token","username"}.
//   - POST /reset: clears every reservation and session. No authentication.
//   - POST /logout: revokes the bearer token of the caller.
//   - GET /session: reports the caller's username and login time.
//   - GET /schedule: the full week as {"schedule":{"MON":[slot...],...}}.
//   - GET /schedule/day?day=MON: one day as {"day","schedule":[slot...]}.
//   - GET /reservations: the caller's bookings.
//   - POST /reservations: books {"day","hour"} for the caller.
//   - DELETE /reservations?day=MON or DELETE /reservations/MON: cancels the
//     caller's booking on that day.
//
// Every route except /login and /reset requires "Authorization: Bearer <token>".
// Request/response DTOs live alongside their respective handlers.
package http
