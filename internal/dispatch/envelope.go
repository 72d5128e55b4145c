package dispatch

import (
	"bytes"
	"encoding/json"
)

// Envelope is one inbound unit of work as handed over by the transport.
type Envelope struct {
	RoutingKey    string
	Body          []byte
	ReplyTo       string
	CorrelationID string
	DeliveryTag   uint64
}

// Args holds command arguments. Values stay raw until a handler asks for them,
// so a field of the wrong JSON type is treated as absent rather than coerced.
type Args map[string]json.RawMessage

// String returns the value for key when it is present and a JSON string.
func (a Args) String(key string) (string, bool) {
	raw, ok := a[key]
	if !ok {
		return "", false
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, true
}

func decodeObject(raw []byte) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, false
	}
	if obj == nil {
		obj = map[string]json.RawMessage{}
	}
	return obj, true
}
