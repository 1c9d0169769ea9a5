// Package collate reshapes extracted course records for the scheduler.
//
// Records are split into three buckets keyed by registration number (CRN):
//
//	0: sections with one meeting time, or the first meeting of a two-meeting section
//	1: sections with no meeting time
//	2: the second meeting of a two-meeting section
package collate
