// Package simulator serves a small in-memory railroad over HTTP so railcab
// can be driven without real hardware.
//
// Routes:
//
//	GET   /locomotive        directory of locomotive servers
//	GET   /locomotive/{id}   locomotive state
//	PATCH /locomotive/{id}   replace locomotive state
//	GET   /switch            directory of switch servers
//	GET   /switch/{id}       switch group state
//	PATCH /switch/{id}       replace switch group state
//
// Every resource carries a revision exposed as an ETag. A PATCH whose
// If-Match header names an older revision is answered with 412 Precondition
// Failed. Ids come from the request path; an id in the body is ignored.
package simulator
