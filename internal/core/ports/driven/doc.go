// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// The CLI depends on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - Catalog: a DAM server session (search, metadata, tagging)
//   - ConfigStore: application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
