// Package services wraps the Spotify Web API behind the [Service] interface.
//
// The interface is the boundary between the classification/reconciliation core
// and the upstream music service: a pull side (saved tracks, playlists,
// playlist tracks, audio features — all transparently paginated or batched)
// and a push side (create playlist, add tracks, remove track, rename, delete).
//
// All calls may fail with [shared.ErrRateLimited] (retried a bounded number of
// times inside the client, honoring Retry-After), [shared.ErrTokenExpired] /
// [shared.ErrUnauthorized] (fatal, surfaced immediately), or
// [shared.ErrPlaylistNotFound]. Batch ceilings are exported as constants so
// callers can slice their inputs.
package services
