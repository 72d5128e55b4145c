package dispatch

import "encoding/json"

// Resolver turns an envelope into a command name and its arguments.
//
// Some callers put the queue name into the pattern field instead of a
// command, so a pattern equal to the listening queue is ignored and the
// resolver falls back to data.pattern, data.cmd and finally the routing key.
type Resolver struct {
	// Queue is the name the worker listens on. When empty the envelope's
	// routing key is used instead.
	Queue string
}

func (r Resolver) Resolve(env Envelope) (string, Args) {
	payload, ok := decodeObject(env.Body)
	if !ok {
		payload = map[string]json.RawMessage{}
	}

	args := Args(payload)
	if raw, present := payload["data"]; present {
		data, ok := decodeObject(raw)
		if !ok {
			data = map[string]json.RawMessage{}
		}
		args = Args(data)
	}

	listening := r.Queue
	if listening == "" {
		listening = env.RoutingKey
	}

	if declared, ok := Args(payload).String("pattern"); ok && isCommand(declared, listening) {
		return declared, args
	}

	for _, key := range []string{"pattern", "cmd"} {
		if candidate, ok := args.String(key); ok && isCommand(candidate, listening) {
			return candidate, args
		}
	}

	return env.RoutingKey, args
}

func isCommand(candidate, listening string) bool {
	return candidate != "" && candidate != listening
}
