// SPDX-License-Identifier: EPL-2.0

// Package player streams a PCM WAV file into an output driver.
//
// The driver calls Render once per block. Render takes samples from a
// read-ahead ring kept full by a streamer goroutine, runs the registered
// filters on them in place and never blocks or allocates. With a driver
// that is not real-time (output.Offline) the ring is refilled inline.
//
// Transport follows
//
//	Closed -> Opening -> Ready -> Playing <-> Paused -> Closed
//
// Stop returns to Ready with the file rewound. When the file ends, a
// supervisor goroutine performs the same stop and closes the channel
// returned by Done.
package player
