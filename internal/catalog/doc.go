// package catalog assembles track collections from the streaming service.
//
// The [Accessor] fetches the saved-tracks library or the deduplicated union
// of one or more playlists, enriching each track with genre tags from batched
// artist lookups. The [Annotator] resolves audio features in rate-limited
// batches so downstream classification has the signals it needs.
package catalog
