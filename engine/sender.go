package engine

import (
	"context"

	"github.com/tony23/pywbem/transport"
)

// Sender is the narrow transport-shaped interface the engine depends
// on. *transport.Transport satisfies it directly; recorder.Replayer
// satisfies it too, letting a Connection run entirely offline against
// a canned fixture file per spec §4.5's "alternative recorder ...
// bypasses the transport".
type Sender interface {
	Send(ctx context.Context, cimMethod, cimObject string, retryIdempotent bool, body []byte) (*transport.Result, error)
}
