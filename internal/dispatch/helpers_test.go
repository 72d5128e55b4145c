package dispatch

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"sync"
)

type fakeTranscriber struct {
	text  string
	err   error
	panic any

	mu    sync.Mutex
	paths []string
	seen  [][]byte
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audioPath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.paths = append(f.paths, audioPath)
	if content, err := os.ReadFile(audioPath); err == nil {
		f.seen = append(f.seen, content)
	}
	if f.panic != nil {
		panic(f.panic)
	}
	return f.text, f.err
}

type published struct {
	destination   string
	body          []byte
	correlationID string
}

type fakePublisher struct {
	err   error
	calls []published
}

func (f *fakePublisher) Publish(_ context.Context, destination string, body []byte, correlationID string) error {
	f.calls = append(f.calls, published{destination: destination, body: body, correlationID: correlationID})
	return f.err
}

// fakeSource replays deliveries and then reports the context error, or
// endErr when set.
type fakeSource struct {
	deliveries []Delivery
	endErr     error
	cancel     context.CancelFunc
}

func (f *fakeSource) Next(ctx context.Context) (Delivery, error) {
	if len(f.deliveries) > 0 {
		next := f.deliveries[0]
		f.deliveries = f.deliveries[1:]
		return next, nil
	}
	if f.endErr != nil {
		return Delivery{}, f.endErr
	}
	if f.cancel != nil {
		f.cancel()
	}
	<-ctx.Done()
	return Delivery{}, ctx.Err()
}

var errTranscription = errors.New("model exploded at /opt/models/ggml-base.bin")

func makePCM16WAV(samples []int16, sampleRate int) []byte {
	const channels = 1
	bytesPerSample := 2
	dataSize := len(samples) * bytesPerSample
	fmtChunkSize := 16
	riffSize := 4 + (8 + fmtChunkSize) + (8 + dataSize)

	out := make([]byte, 12+8+fmtChunkSize+8+dataSize)
	off := 0

	copy(out[off:], "RIFF")
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(riffSize))
	off += 4
	copy(out[off:], "WAVE")
	off += 4

	copy(out[off:], "fmt ")
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(fmtChunkSize))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], 1)
	off += 2
	binary.LittleEndian.PutUint16(out[off:], channels)
	off += 2
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate*channels*bytesPerSample))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], uint16(channels*bytesPerSample))
	off += 2
	binary.LittleEndian.PutUint16(out[off:], 16)
	off += 2

	copy(out[off:], "data")
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(dataSize))
	off += 4

	for _, s := range samples {
		binary.LittleEndian.PutUint16(out[off:], uint16(s))
		off += 2
	}

	return out
}
