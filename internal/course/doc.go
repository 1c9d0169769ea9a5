// Package course turns a course detail page into a typed Record.
//
// A detail page is a two-column table of label/value rows. Extraction maps the rows
// onto Attributes, splits the Additional Course Info blob into its sub-fields, splits
// the registration id into subject, number and section, and parses the meeting times.
// Any failure rejects the whole page.
package course
