// Package ids allocates obfuscated destination identifiers.
//
// A destination hands out an id offset (a UUID) and a token per session. New
// ids are the hashids encoding of offset+1, offset+2 and so on, so a client
// can pick ids for whole batches before submitting any of them. The Allocator
// keeps one source-to-destination table per entity type.
package ids
