package logging

import "log/slog"

// Common field names for consistent logging across the receiver and the agent.
const (
	FieldService   = "service"
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldBytes     = "bytes"
	FieldHost      = "host"
	FieldData      = "data"
)

func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

func RequestID(id string) slog.Attr {
	return slog.String(FieldRequestID, id)
}

func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error. A nil error yields an empty value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

func Bytes(n int) slog.Attr {
	return slog.Int(FieldBytes, n)
}

func Host(name string) slog.Attr {
	return slog.String(FieldHost, name)
}

// Data returns a slog attribute holding an arbitrary value under the "data" key.
// JSON handlers render it through its MarshalJSON, text handlers through String.
func Data(v any) slog.Attr {
	return slog.Any(FieldData, v)
}
