// Package reports lays out lead and client exports and computes dashboard figures.
//
// Build produces a header row and display-string rows; WriteCSV renders them.
// A Sink publishes the rendered file, either to a local directory or to an
// S3-compatible bucket.
package reports
