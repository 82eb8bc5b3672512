package httpclient

import (
	"encoding/json"

	apperrors "github.com/lashkaryadi/get-me-a-tutor/pkg/errors"
)

// apiErrorBody covers both error shapes the marketplace API emits:
// a flat {"success":false,"message":"..."} and a nested {"error":{...}}.
type apiErrorBody struct {
	Message string `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ErrorMessage extracts the human-readable message from an API error body.
// It returns "" when the body carries none.
func ErrorMessage(body []byte) string {
	var parsed apiErrorBody
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	if parsed.Error != nil {
		return parsed.Error.Message
	}
	return ""
}

// StatusError maps an already-read error body onto the error taxonomy.
func StatusError(status int, body []byte) error {
	return apperrors.FromStatus(status, ErrorMessage(body))
}

// IsSuccess reports whether the status code is 2xx.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
