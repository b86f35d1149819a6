// Package connectors provides implementations of the Catalog interface
// for DAM server products. Each connector owns one product's wire
// protocol, session handling, and quirks.
package connectors
