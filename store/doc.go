// Package store persists GTFS rows behind a narrow table/row interface.
//
// The engine never sees column names or SQL; it addresses rows by opaque
// natural keys derived from each table's GTFS primary key. Two
// implementations ship: Memory (development and tests) and Postgres over
// the pgx stdlib driver. Both guarantee that ReplaceRows is all-or-nothing,
// which the mutation engine relies on for atomic resequencing.
package store
