// Package logtail reads the end of the railcab log for the console.
//
// Read keeps a ring buffer of the last maxLines non-empty lines, so memory
// stays bounded by maxLines regardless of file size. Each line is parsed as
// a zap JSON record into an Entry; anything else (a panic trace, a line
// written before the logger was configured) is kept verbatim in Entry.Raw.
//
// A missing file is not an error. The console opens the log overlay before
// the first record is flushed, and an empty overlay is the right answer.
package logtail
