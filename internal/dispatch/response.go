package dispatch

import "encoding/json"

type Status string

const (
	StatusSuccess Status = "success"
	StatusHealthy Status = "healthy"
	StatusError   Status = "error"
)

// Response is the reply to a single envelope. Only the fields belonging to
// its status are put on the wire.
type Response struct {
	Status  Status
	Service string
	Text    string
	Message string
}

func Healthy(service string) Response {
	return Response{Status: StatusHealthy, Service: service}
}

func Success(text string) Response {
	return Response{Status: StatusSuccess, Text: text}
}

func Failure(message string) Response {
	return Response{Status: StatusError, Message: message}
}

func (r Response) MarshalJSON() ([]byte, error) {
	switch r.Status {
	case StatusHealthy:
		return json.Marshal(struct {
			Status  Status `json:"status"`
			Service string `json:"service"`
		}{r.Status, r.Service})
	case StatusSuccess:
		return json.Marshal(struct {
			Status Status `json:"status"`
			Text   string `json:"text"`
		}{r.Status, r.Text})
	default:
		status := r.Status
		if status == "" {
			status = StatusError
		}
		return json.Marshal(struct {
			Status  Status `json:"status"`
			Message string `json:"message"`
		}{status, r.Message})
	}
}
