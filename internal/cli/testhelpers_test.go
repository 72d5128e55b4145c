package cli

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

// runCLI executes the root command with env as the only visible environment,
// so RABBITMQ_URL and friends on the host cannot leak into a test.
func runCLI(t *testing.T, env map[string]string, args ...string) (stdout string, stderr string, err error) {
	t.Helper()

	app := newAppState()
	app.lookupEnv = envLookup(env)
	cmd := newRootCmd(app)

	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// monoWAV encodes samples as the 16 kHz mono PCM16 audio workers receive.
func monoWAV(samples []int16) []byte {
	const sampleRate = 16000
	dataSize := uint32(len(samples) * 2)

	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, 36+dataSize)
	out = append(out, "WAVEfmt "...)
	out = binary.LittleEndian.AppendUint32(out, 16)
	out = binary.LittleEndian.AppendUint16(out, 1)
	out = binary.LittleEndian.AppendUint16(out, 1)
	out = binary.LittleEndian.AppendUint32(out, sampleRate)
	out = binary.LittleEndian.AppendUint32(out, sampleRate*2)
	out = binary.LittleEndian.AppendUint16(out, 2)
	out = binary.LittleEndian.AppendUint16(out, 16)
	out = append(out, "data"...)
	out = binary.LittleEndian.AppendUint32(out, dataSize)
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint16(out, uint16(s))
	}
	return out
}
