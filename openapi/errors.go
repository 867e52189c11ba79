package openapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pscheid92/cyan/model"
)

// Platform error codes the SDK reacts to.
const (
	CodeMemberNotFound      = 50001
	CodeMemberListEnd       = 130000
	CodeMessageAuditPending = 304023
	CodeMessageAuditWaiting = 304024
	CodeMuteNoPermission    = 502008
)

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	TraceID    string

	retryAfter time.Duration
	body       []byte
}

func (e *APIError) Error() string {
	if e.TraceID != "" {
		return fmt.Sprintf("platform API error: status %d, code %d: %s (trace %s)", e.StatusCode, e.Code, e.Message, e.TraceID)
	}
	return fmt.Sprintf("platform API error: status %d, code %d: %s", e.StatusCode, e.Code, e.Message)
}

// RetryAfter is the server's Retry-After hint, zero when absent.
func (e *APIError) RetryAfter() time.Duration {
	return e.retryAfter
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(resp *response) *APIError {
	e := &APIError{
		StatusCode: resp.status,
		Message:    http.StatusText(resp.status),
		TraceID:    resp.header.Get("X-Tps-Trace-Id"),
		body:       resp.body,
	}

	var b errorBody
	if err := json.Unmarshal(resp.body, &b); err == nil {
		e.Code = b.Code
		if b.Message != "" {
			e.Message = b.Message
		}
	}

	if s := resp.header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			e.retryAfter = time.Duration(secs) * time.Second
		}
	}
	return e
}

// IsCode reports whether err is an *APIError with the given platform code.
func IsCode(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// IsStatus reports whether err is an *APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// AuditPendingError is returned when a sent message was accepted but is held
// for review. The message is delivered later if the audit passes.
type AuditPendingError struct {
	Code  int
	Audit model.MessageAudit
}

func (e *AuditPendingError) Error() string {
	return fmt.Sprintf("message held for audit %s (code %d)", e.Audit.AuditID, e.Code)
}

func isAuditCode(code int) bool {
	return code == CodeMessageAuditPending || code == CodeMessageAuditWaiting
}

type auditEnvelope struct {
	Code int `json:"code"`
	Data struct {
		MessageAudit model.MessageAudit `json:"message_audit"`
	} `json:"data"`
}

// auditPending inspects a send-message response body for the audit codes.
func auditPending(raw []byte) (*AuditPendingError, bool) {
	var env auditEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || !isAuditCode(env.Code) {
		return nil, false
	}
	return &AuditPendingError{Code: env.Code, Audit: env.Data.MessageAudit}, true
}
