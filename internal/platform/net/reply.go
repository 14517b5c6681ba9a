package net

import (
	"net/http"

	perr "payeerules/internal/platform/errors"
)

// Reply is the envelope transports write when they sit outside the handler layer
type Reply struct {
	StatusCode int        `json:"status_code"`
	Status     string     `json:"status"`
	RequestID  string     `json:"request_id,omitempty"`
	Data       any        `json:"data,omitempty"`
	Error      *perr.Wire `json:"error,omitempty"`
}

// OK builds a 200 reply
func OK(data any, reqID string) (int, Reply) {
	return http.StatusOK, Reply{
		StatusCode: http.StatusOK,
		Status:     http.StatusText(http.StatusOK),
		RequestID:  reqID,
		Data:       data,
	}
}

// Error maps err to a status and error reply, nil err is a 200
func Error(err error, reqID string) (int, Reply) {
	if err == nil {
		return OK(nil, reqID)
	}
	status, w := perr.HTTP(err)
	return status, Reply{
		StatusCode: status,
		Status:     http.StatusText(status),
		RequestID:  reqID,
		Error:      &w,
	}
}
