// Package leak detects temporal tracker leaks in a recorded session.
//
// A temporal leak is a tracker request fired inside the window
// immediately after a page load, before any consent mechanism could
// plausibly have been honored. Detection is a pure function over the
// frozen session log: the same log and threshold always yield the same
// leaks, in the same order.
package leak
