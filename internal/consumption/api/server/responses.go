package server

// Response is the uniform envelope every endpoint returns, success or not.
// Failures carry a human-readable message instead of a transport error code.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

func ok(payload interface{}) Response {
	return Response{Success: true, Message: "", Payload: payload}
}

func fail(message string) Response {
	return Response{Success: false, Message: message, Payload: nil}
}
