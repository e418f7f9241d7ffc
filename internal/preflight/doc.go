// Package preflight provides readiness checks for the filesystem paths,
// storage backend, and external tools photoreport depends on.
//
// The CLI "photoreport status" command renders every result, and the serve
// and watch commands run RunAll before taking the instance lock so an
// unwritable data directory is reported up front.
package preflight
