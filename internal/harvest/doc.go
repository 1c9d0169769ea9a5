// Package harvest drives a course search from query to extracted records.
//
// A run resolves the query's default sets, counts the hits, fetches every results
// page concurrently, flattens the links in page order, then fetches and extracts every
// detail page concurrently. Each run owns its worker pool; nothing outlives Run.
//
// By default a failing page or record is recorded in Result.Failures and the rest of
// the run continues. Options.FailFast aborts the run on the first failure instead.
package harvest
