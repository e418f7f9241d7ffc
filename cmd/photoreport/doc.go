// Command photoreport builds photo inspection reports from the terminal.
//
// Each invocation loads the report stored under --client/--property, applies
// one edit, and saves it back. The serve and watch commands keep a report open
// for the HTTP workbench and the drop folder instead.
package main
