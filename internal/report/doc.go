// Package report models a photo-documentation report: the client/property
// metadata, a free-text summary, and the ordered list of captioned photo
// cards.
//
// Cards is the in-memory ordered collection the session controller mutates;
// Report is the persisted aggregate. Card identity is an in-memory UUID used
// to address a card for removal, replacement, and caption edits. It is never
// persisted, so a loaded report receives fresh identities.
package report
