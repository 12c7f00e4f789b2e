package errx

import (
	"context"
	"errors"
	"net/http"
)

// WrapModel maps text model errors to the unified Error type. Deadline
// expirations are tagged with ErrGenerationTimeout so handlers can pick the
// canned fallback path.
func WrapModel(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(errors.Join(ErrGenerationTimeout, err), http.StatusGatewayTimeout, ModelTimeoutMessage)
	}

	return New(err, http.StatusBadGateway, ModelErrorMessage)
}
