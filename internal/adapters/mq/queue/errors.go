package queue

import "errors"

// ErrQueueStopped is returned by producers that find the queue closed.
var ErrQueueStopped = errors.New("queue stopped")
