// Package response holds the JSON envelope every API route answers with.
package response

// Response wraps a payload or an error. Validation failures also carry the
// offending field and, for checklist or import problems, every failure line.
type Response struct {
	Status     string      `json:"status"` // "success" or "error"
	StatusCode int         `json:"status_code"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Field      string      `json:"field,omitempty"`
	Failures   []string    `json:"failures,omitempty"`
}

func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// Invalid reports a rejected request body or action.
func Invalid(statusCode int, err, field string, failures []string) Response {
	r := Error(statusCode, err)
	r.Field = field
	r.Failures = failures
	return r
}
