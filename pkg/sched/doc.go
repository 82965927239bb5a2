// Package sched decouples redraw requests from frame rendering. Requests
// from any goroutine collapse into at most one pending frame, and frames
// are paced under a rate ceiling while requests keep arriving.
package sched
