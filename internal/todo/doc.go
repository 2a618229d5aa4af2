// Package todo holds the list view's client-side state.
//
// A Synchronizer keeps one user's snapshot of the remote to-do collection
// together with the input buffers of the list view. Every mutation is sent to
// the document store and followed by a full refetch; the snapshot is never
// patched locally, so a failed call leaves the last good snapshot in place.
//
// Classify maps an item's end date to the category used to color it.
package todo
