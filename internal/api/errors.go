package api

import (
	"encoding/json"
	"fmt"
)

// Error is the single normalised failure shape every caller inspects,
// regardless of whether the failure came from the transport, the server
// or response decoding.
type Error struct {
	Message string
	Status  int
	Payload []byte
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

// errorBody is the JSON shape the backend uses for failures. Both
// fields are optional and some endpoints use one, some the other.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// normalizeError builds an Error from a non-2xx response. Message
// precedence: server "message" field, then server "error" field, then
// the transport-level text, then a generic fallback.
func normalizeError(status int, payload []byte, transportMsg string) *Error {
	msg := ""
	var body errorBody
	if len(payload) > 0 && json.Unmarshal(payload, &body) == nil {
		switch {
		case body.Message != "":
			msg = body.Message
		case body.Error != "":
			msg = body.Error
		}
	}
	if msg == "" {
		msg = transportMsg
	}
	if msg == "" {
		msg = "Error en la solicitud"
	}
	return &Error{Message: msg, Status: status, Payload: payload}
}

// ServerMessage extracts the preferred message from an error, checking
// the payload "error" field first, then "message". Stores use it to
// surface business-rule rejections with an action-specific fallback.
func ServerMessage(err error, fallback string) string {
	apiErr, ok := err.(*Error)
	if !ok || len(apiErr.Payload) == 0 {
		if ok && apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	var body errorBody
	if json.Unmarshal(apiErr.Payload, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
