// Package directory talks to the external customer directory service over
// RabbitMQ RPC. The directory owns customer ids; this service only carries
// them transiently inside login responses and token claims.
package directory

import (
	"context"
	"errors"
)

// ErrRemote classifies any remote execution failure: broker unreachable,
// call timeout, or an error raised by the remote procedure. Callers treat
// all of these as "no id resolved".
var ErrRemote = errors.New("directory remote error")

// Client resolves the secondary identifier for users whose roles require a
// directory link. A nil id with a nil error means the directory holds no
// record for the user.
type Client interface {
	VerifyUserEssentials(ctx context.Context, userID string, address map[string]any) (*int64, error)
}
