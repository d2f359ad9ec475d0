// SPDX-License-Identifier: EPL-2.0

// Package delay holds the building blocks of the multi-tap delay: a
// fixed-size circular Line and the tap table computed by Layout.
//
// Both are plain values without locking. The engine package owns one Line
// per channel and publishes tap tables to the render path as immutable
// snapshots.
package delay
