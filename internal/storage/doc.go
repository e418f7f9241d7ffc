// Package storage persists reports under string keys derived from the client
// and property names.
//
// Three interchangeable backends implement Store: an in-memory map (tests and
// ephemeral sessions), a directory of JSON files written atomically, and an
// embedded SQLite database. Every backend serialises the same JSON document,
// overwrites wholesale on Put, returns (nil, nil) from Get for unknown keys,
// and reports capacity exhaustion as ErrStorageFull while leaving previously
// stored data intact.
package storage
