package httpclient

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strings"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/microcosm-cc/bluemonday"
)

// apiError covers the error bodies the commerce API returns: a detail or
// error string, optionally with a code and the per-token messages list.
type apiError struct {
	Detail   string `json:"detail"`
	Error    string `json:"error"`
	Message  string `json:"message"`
	Code     string `json:"code"`
	Messages []struct {
		Message string `json:"message"`
	} `json:"messages"`
}

var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips markup from a message produced by the remote API. The
// result is plain text, not HTML.
func Sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(s)))
}

// decodeError turns a non-2xx response into an AppError carrying the
// upstream status.
func decodeError(status int, body []byte) *errors.AppError {

	var payload apiError
	_ = json.Unmarshal(body, &payload)

	messages := make([]string, 0, len(payload.Messages))
	for _, m := range payload.Messages {
		messages = append(messages, m.Message)
	}

	message := firstNonEmpty(payload.Detail, payload.Error, payload.Message)
	if message == "" && len(messages) > 0 {
		message = messages[0]
	}

	detail := fieldErrors(body)
	if message == "" {
		message = detail
	}

	if message == "" {
		message = http.StatusText(status)
	}

	message = Sanitize(message)

	var appErr *errors.AppError

	switch {
	case status == http.StatusUnauthorized && errors.MatchesTokenExpired(payload.Code, messages):
		appErr = errors.TokenExpiredError(message)
	case status == http.StatusUnauthorized:
		appErr = errors.UnauthorizedError(message)
	case status == http.StatusForbidden:
		appErr = errors.ForbiddenError(message)
	case status == http.StatusNotFound:
		appErr = errors.NotFoundError(message)
	case status == http.StatusTooManyRequests:
		appErr = errors.TooManyRequestsError(message)
	case status >= http.StatusInternalServerError:
		return errors.ThirdPartyError("The store service is unavailable, please try again").WithDetail(message)
	default:
		appErr = errors.NewAppError(errors.ErrCodeBadRequest, message, status)
	}

	if detail != "" && detail != message {
		appErr.WithDetail(Sanitize(detail))
	}

	return appErr
}

// fieldErrors flattens a {"field": ["msg", ...]} validation body.
func fieldErrors(body []byte) string {

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}

	var parts []string

	for field, v := range fields {
		list, ok := v.([]any)
		if !ok {
			continue
		}

		for _, item := range list {
			if s, ok := item.(string); ok {
				parts = append(parts, fmt.Sprintf("%s: %s", field, s))
			}
		}
	}

	sort.Strings(parts)

	return strings.Join(parts, "; ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
