// Package query describes a course search and encodes it as search form parameters.
//
// Empty campus, department and semester sets are filled from a Lookup before a
// search runs. Empty pattern fields are sent as ".", which the form treats as a
// wildcard. Results come back PageSize at a time, selected by the run_tot offset.
package query
