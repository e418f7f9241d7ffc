// Package textutil provides small text helpers shared by the persistence and
// ingestion layers: Unicode normalization of user-entered labels and
// sanitization of names for safe filesystem use.
package textutil
