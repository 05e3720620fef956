// Package railroad provides the HTTP client and wire types for railroad
// directory and resource servers.
//
// # Endpoints
//
// A directory endpoint answers GET with an array of server descriptors:
//
//	[{"id": "br218", "restURL": "http://10.0.0.7:8095/locomotive/br218"}]
//
// Each restURL names a resource endpoint holding the full state of one
// locomotive or one switch group. GET returns the state, PATCH overwrites it
// with the complete object in the request body.
//
// # Conditional writes
//
// When a resource response carries an ETag the value is returned as a
// Revision. Passing that Revision to PatchLocomotive or PatchSwitchGroup sends
// it as If-Match; a 412 response surfaces as ErrConflict. Servers without
// ETags fall back to last-write-wins.
//
// # Validation
//
// Payloads are checked against embedded JSON schemas (schema/*.json) before
// they are decoded. A directory entry that fails validation is skipped and
// logged; a resource payload that fails validation is an error.
package railroad
