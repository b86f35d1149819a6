// Package domain contains the core business types shared across the
// application: catalog items, tag schema, search filters and results, and
// batch metadata operations. Types here are plain data with no knowledge of
// the wire protocol; the daminion connector translates them to and from the
// server's representation.
package domain
