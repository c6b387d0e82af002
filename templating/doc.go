// Package templating renders configuration documents that embed
// <%= binding.method("arg") => placeholders. It scans with
// valyala/fasttemplate using delimiters chosen not to clash with
// JSON braces, parses each placeholder as a single method call with
// string literal arguments and substitutes the value returned by the
// named Binding.
//
// The Engine renders the whole document in memory before its
// ExpandFile method truncates the destination, so a failed lookup
// never leaves a half rendered file behind.
package templating
