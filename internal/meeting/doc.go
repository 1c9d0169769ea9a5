// Package meeting parses the "Time And Days" strings shown on course detail pages.
//
// A string such as "MWF 11:30am-12:20pm, TH 1:00pm-2:20pm" holds one or more
// comma-separated groups. Each group is an optional run of day tokens followed by a
// single space and a time range. A group without days inherits the days of the most
// recent group that had them. Day tokens are matched longest first so that "TH" is
// never split into "T" and a stray "H".
package meeting
