// Package notify sends charging requests to the remote controller and classifies the outcome.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ogulcanaydogan/battery-guardian/pkg/model"
	"github.com/ogulcanaydogan/battery-guardian/pkg/request"
)

// MaxSuccessStatus is the highest status code treated as a successful delivery.
const MaxSuccessStatus = 399

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "Battery-Guardian/1.0"

// HTTPNotifier performs plain HTTP requests with no retries.
type HTTPNotifier struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewHTTPNotifier creates a notifier. A zero timeout falls back to 10 seconds.
func NewHTTPNotifier(timeout time.Duration, userAgent string, logger *slog.Logger) *HTTPNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &HTTPNotifier{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		logger:    logger,
	}
}

func (n *HTTPNotifier) Name() string { return "http" }

func (n *HTTPNotifier) Send(ctx context.Context, req request.Request) Result {
	method := strings.ToUpper(req.Method)
	n.logger.Info("sending request", "method", method, "url", req.URL)

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return n.transportFailure(req, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return n.transportFailure(req, fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	result := Classify(resp.StatusCode)
	result.Reason = reasonPhrase(resp)

	if result.Outcome == model.OutcomeSuccess {
		n.logger.Info("request delivered",
			"method", method,
			"url", req.URL,
			"status", resp.StatusCode,
		)
		return result
	}

	// Retry happens on the next check if it is still needed.
	n.logger.Error("request rejected",
		"method", method,
		"url", req.URL,
		"status", resp.StatusCode,
		"reason", result.Reason,
	)
	return result
}

func (n *HTTPNotifier) transportFailure(req request.Request, err error) Result {
	n.logger.Error("request failed",
		"method", req.Method,
		"url", req.URL,
		"error", err,
	)
	return Result{Outcome: model.OutcomeTransportFailure, Reason: err.Error(), Err: err}
}

// Classify maps an HTTP status code to a delivery outcome.
func Classify(statusCode int) Result {
	if statusCode <= MaxSuccessStatus {
		return Result{Outcome: model.OutcomeSuccess, StatusCode: statusCode}
	}
	return Result{
		Outcome:    model.OutcomeRemoteRejected,
		StatusCode: statusCode,
		Err:        fmt.Errorf("remote returned status %d", statusCode),
	}
}

func reasonPhrase(resp *http.Response) string {
	// resp.Status looks like "404 Not Found"
	if _, reason, ok := strings.Cut(resp.Status, " "); ok {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}
