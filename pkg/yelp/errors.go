package yelp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-200 response from the Yelp API.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("yelp: unexpected status %d: %s", e.StatusCode, e.Description)
	}
	return fmt.Sprintf("yelp: unexpected status %d: %s: %s", e.StatusCode, e.Code, e.Description)
}

// RateLimited reports whether the upstream rejected the call for request rate.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Code == "TOO_MANY_REQUESTS_PER_SECOND"
}

// errorBody covers both the v3 {code, description} and v2 {id, text} shapes.
type errorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		ID          string `json:"id"`
		Text        string `json:"text"`
	} `json:"error"`
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		apiErr.Description = string(body)
		return apiErr
	}

	apiErr.Code = eb.Error.Code
	if apiErr.Code == "" {
		apiErr.Code = eb.Error.ID
	}
	apiErr.Description = eb.Error.Description
	if apiErr.Description == "" {
		apiErr.Description = eb.Error.Text
	}
	return apiErr
}

// AsAPIError unwraps err to an *APIError if one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
