package notify

import (
	"context"

	"github.com/ogulcanaydogan/battery-guardian/pkg/model"
	"github.com/ogulcanaydogan/battery-guardian/pkg/request"
)

// Result is the classified outcome of a single notification attempt.
type Result struct {
	Outcome    model.Outcome `json:"outcome"`
	StatusCode int           `json:"status_code,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Err        error         `json:"-"`
}

// Sender delivers rendered requests to the remote controller.
type Sender interface {
	// Name returns the sender identifier.
	Name() string

	// Send performs the request once. It never returns an error: failures are
	// reported through Result.Outcome.
	Send(ctx context.Context, req request.Request) Result
}
