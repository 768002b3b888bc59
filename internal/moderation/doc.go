// Package moderation screens forum threads and replies before they are
// stored. It rejects text that is too short or too long, contains
// denylisted words, looks like spam, or repeats the author's recent posts,
// and redacts denylisted words for display.
package moderation
