package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/storefront-search/pkg/errors"
)

// errorBody mirrors the error envelope written by platform services.
type errorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError reads a non-2xx response and translates it into an
// error. The body is consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	message := string(raw)
	var body errorBody
	if json.Unmarshal(raw, &body) == nil && body.Error != nil {
		message = body.Error.Message
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: fmt.Sprintf("%s: %s", serviceName, message),
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", serviceName, apperrors.RateLimited())
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return apperrors.InvalidInput(fmt.Sprintf("%s: %s", serviceName, message))
	default:
		return fmt.Errorf("%s returned status %d: %s: %w", serviceName, resp.StatusCode, message, apperrors.ErrUpstream)
	}
}
