// Package ingest keeps the vector index in agreement with the catalog store.
//
// The Synchronizer embeds catalog images and inserts the resulting points,
// discovers orphan images that have no catalog record, and handles single
// product uploads. All sync operations are idempotent: membership is checked
// by id before every insertion, so a second run over an unchanged catalog
// performs zero writes.
package ingest
