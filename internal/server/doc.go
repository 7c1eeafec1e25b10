// Package server provides HTTP routing, middleware, OAuth handling, and the
// JSON dashboard API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// OAuthHandler implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// When the user runs the auth command, a temporary HTTP server starts on the
// configured callback address, handles the redirect, and shuts down after
// receiving the token.
//
// # Dashboard API
//
// [API] exposes the sort pipeline over JSON for the `serve` command:
// library and playlist listings, library statistics, classification previews,
// sort runs, filtering, and playlist management. Handlers implement the
// [Handler] interface so route definitions live next to their logic.
package server
