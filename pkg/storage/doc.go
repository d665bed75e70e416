// Package storage persists the product catalog: a JSON manifest of product
// records plus the image files they reference.
//
// Two backends implement the same Store contract and are selected by
// configuration, never mixed within one run. LocalStore keeps the manifest
// and images on the local filesystem; ObjectStore keeps them in an
// S3-compatible bucket and serves images through public URLs.
//
// The two backends differ in one documented way: only LocalStore writes
// discovered placeholder records back into the manifest. Callers check
// WritesBackManifest before attempting it.
package storage
