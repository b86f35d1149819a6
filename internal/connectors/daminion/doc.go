// Package daminion implements the client for the Daminion DAM server's
// web API: session management, tag schema discovery, structured search with
// pagination repair, and batched metadata write-back.
//
// The server's API is inconsistently versioned: response bodies vary in
// shape, some query syntaxes are rejected by some versions, and free-text
// search silently caps the retrievable result set. The client compensates
// with a normalization layer at the request boundary, alternate query
// syntaxes, and gated brute-force fallbacks. See paginate.go for the
// anomaly handling.
package daminion
