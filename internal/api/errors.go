package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/taoyao-code/amp-server/internal/broker"
	"github.com/taoyao-code/amp-server/internal/protocol/amp"
	"github.com/taoyao-code/amp-server/internal/serialport"
)

// 错误码，REST 与 WebSocket 共用
const (
	CodeUnknownAction = "unknown_action"
	CodeUnsupported   = "unsupported"
	CodeProtocol      = "protocol_error"
	CodeTimeout       = "timeout"
	CodeUnavailable   = "unavailable"
	CodeRateLimited   = "rate_limited"
	CodeBadRequest    = "bad_request"
	CodeNotFound      = "not_found"
	CodeInternal      = "device_error"
)

// ErrorBody 错误应答
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// classify 把设备/broker 错误映射为 HTTP 状态码与错误码
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, broker.ErrUnknownAction):
		return http.StatusBadRequest, CodeUnknownAction
	case errors.Is(err, amp.ErrUnsupportedOperation):
		return http.StatusNotImplemented, CodeUnsupported
	case errors.Is(err, amp.ErrUnexpectedHeader),
		errors.Is(err, amp.ErrUnexpectedEcho),
		errors.Is(err, amp.ErrShortReply):
		return http.StatusBadGateway, CodeProtocol
	case errors.Is(err, serialport.ErrTimeout):
		return http.StatusGatewayTimeout, CodeTimeout
	case errors.Is(err, broker.ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, CodeUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func errorBody(err error) (int, ErrorBody) {
	code, name := classify(err)
	return code, ErrorBody{Error: err.Error(), Code: name}
}
