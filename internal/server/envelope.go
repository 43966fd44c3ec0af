package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"

	"investSandbox/internal/ports"
)

// Every REST response is wrapped in the same envelope. Tracking ids come from
// a process-wide monotonic counter.
type envelope struct {
	TrackingID string      `json:"trackingId"`
	Status     string      `json:"status"`
	Payload    interface{} `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

const (
	statusOk    = "Ok"
	statusError = "Error"

	codeNotFound       = "NOT_FOUND"
	codeNotImplemented = "NOT_IMPLEMENTED"
	codeInvalidRequest = "INVALID_REQUEST"
	codeInternal       = "INTERNAL_ERROR"
)

func (s *Server) nextTrackingID() string {
	return strconv.FormatInt(s.trackID.Add(1), 10)
}

func (s *Server) writeEnvelope(w http.ResponseWriter, httpStatus int, env envelope) {
	body, err := sonic.Marshal(env)
	if err != nil {
		s.logger.Error(context.Background(), err, "failed to marshal response envelope")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_, _ = w.Write(body)
}

// ok writes a 200 envelope around the payload.
func (s *Server) ok(w http.ResponseWriter, payload interface{}) {
	s.writeEnvelope(w, http.StatusOK, envelope{
		TrackingID: s.nextTrackingID(),
		Status:     statusOk,
		Payload:    payload,
	})
}

// failCode writes an error envelope with an explicit status and stable code.
func (s *Server) failCode(w http.ResponseWriter, httpStatus int, code, message string) {
	s.writeEnvelope(w, httpStatus, envelope{
		TrackingID: s.nextTrackingID(),
		Status:     statusError,
		Payload:    errorPayload{Message: message, Code: code},
	})
}

// fail maps application errors onto the envelope taxonomy. Everything is
// surfaced to the caller; nothing is logged-and-swallowed.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, ports.ErrPriceUnavailable):
		s.failCode(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, ports.ErrNotImplemented):
		s.failCode(w, http.StatusNotImplemented, codeNotImplemented, err.Error())
	case errors.Is(err, ports.ErrInvalidRequest):
		s.failCode(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
	default:
		s.failCode(w, http.StatusInternalServerError, codeInternal, err.Error())
	}
}

// notImplemented is the handler for intentionally stubbed operations.
func (s *Server) notImplemented(w http.ResponseWriter, _ *http.Request) {
	s.failCode(w, http.StatusNotImplemented, codeNotImplemented, "Not Implemented")
}
