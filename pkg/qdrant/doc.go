// Package qdrant implements the vector index tier of the similarity search
// engine on top of the official Qdrant Go client.
//
// The package has two layers:
//
//   - QdrantClient: a thin connection wrapper with health checking, suitable
//     for Fx dependency injection.
//   - Index: product-level operations: idempotent collection setup, upserts
//     keyed by the product identifier codec, filtered similarity search,
//     paginated full scans and point-level CRUD.
//
// Every point is stored under a numeric ID derived from the product's string
// identifier, and the string identifier is injected into the payload as
// "original_id" so results can always report the human-readable form.
package qdrant
