// Package printview composes the paginated print document for a report.
//
// Compose is a pure projection of the report header and its cards: cards
// with neither an image nor a caption are dropped, the print rendition is
// preferred over the preview, and entries are grouped into pages of
// PhotosPerPage. Prepare additionally waits for every embedded image to
// finish loading (or fail) so the handoff to a Printer never races a
// half-loaded document. Render writes the document as standalone HTML.
package printview
