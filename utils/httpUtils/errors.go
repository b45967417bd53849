package httpUtils

import (
	"errors"
	"fmt"
	"net/http"
)

// HttpError is returned for any response outside the 2xx range.
type HttpError struct {
	StatusCode int
	URL        string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("unexpected HTTP status from %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusCode extracts the HTTP status from err, if it carries one.
func StatusCode(err error) (int, bool) {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}
