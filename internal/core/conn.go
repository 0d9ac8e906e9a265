// Package core holds the in-memory coordinator state: which connection
// represents each online user, who occupies which voice room, and which
// connections subscribed to which chat topic. All state here is process-local
// and intentionally lost on restart.
package core

import "errors"

// Frame is a marshaled event ready for the wire.
type Frame []byte

var ErrBackpressure = errors.New("backpressure")

// Connection abstracts the realtime transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type Connection interface {
	// TrySend queues a frame without blocking. Delivery is best effort;
	// ErrBackpressure means the peer's buffer is full and the frame was dropped.
	TrySend(Frame) error
	Close()
}
