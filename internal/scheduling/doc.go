// Package scheduling detects time conflicts between tutoring sessions.
//
// Intervals are half-open: a session ending at 10:00 does not collide with
// one starting at 10:00. Cancelled intervals never take part in a conflict.
package scheduling
