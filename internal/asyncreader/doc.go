// Package asyncreader implements progressive, asynchronous region
// reads: a consumer asks for a resampled sub-window of a raster in a
// buffer it owns, a decode engine fills it in from its own goroutine,
// and the consumer polls for "new data visible" until the transfer
// completes or fails.
//
// The split is deliberate: the engine's callback only latches flags,
// and every byte written to the shared buffer happens on the consumer's
// goroutine inside the poll, under the one mutex both sides share.
package asyncreader
