// Package importer turns CSV files into new leads.
//
// The file needs a header row containing leadName, company and email; contact,
// source (or date) and notes are optional. Import never stores anything: it
// returns the converted leads together with the rotation index to commit once
// the caller has written them.
package importer
