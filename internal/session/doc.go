// Package session owns the one report being edited and coordinates every
// operation on it: ingesting photos, editing cards, saving and loading
// through a storage.Store, clearing, and handing a prepared print document to
// a printer.
//
// A Controller serialises access to its report with a mutex so the CLI, the
// local HTTP workbench, and the drop-folder watcher can share it. Photo
// processing runs outside the lock; only the card mutations hold it.
package session
