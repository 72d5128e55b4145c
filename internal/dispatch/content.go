package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// audioKeys lists the argument names that may carry the audio payload.
// audiFile is what the Nest gateway sends.
var audioKeys = []string{"content", "audiFile"}

func audioContent(args Args) ([]byte, error) {
	for _, key := range audioKeys {
		raw, ok := args[key]
		if !ok {
			continue
		}
		return decodeAudio(raw)
	}
	return nil, ErrMissingContent
}

// decodeAudio accepts a base64 string, a list of byte values, or a Node
// Buffer object of the form {"type":"Buffer","data":[...]}.
func decodeAudio(raw json.RawMessage) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrMissingContent
	}

	var (
		content []byte
		err     error
	)
	switch trimmed[0] {
	case '"':
		err = json.Unmarshal(trimmed, &content)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
	case '[':
		content, err = decodeByteList(trimmed)
	case '{':
		var buffer struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &buffer); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		if len(buffer.Data) == 0 || bytes.TrimSpace(buffer.Data)[0] != '[' {
			return nil, ErrInvalidContent
		}
		content, err = decodeByteList(buffer.Data)
	default:
		err = ErrInvalidContent
	}
	if err != nil {
		return nil, err
	}

	if len(content) == 0 {
		return nil, ErrMissingContent
	}
	return content, nil
}

func decodeByteList(raw json.RawMessage) ([]byte, error) {
	var values []int
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	content := make([]byte, len(values))
	for i, value := range values {
		if value < 0 || value > 255 {
			return nil, fmt.Errorf("%w: byte %d out of range: %d", ErrInvalidContent, i, value)
		}
		content[i] = byte(value)
	}
	return content, nil
}
