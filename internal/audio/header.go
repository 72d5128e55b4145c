package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// WAVE format tags found in the fmt chunk.
const (
	formatPCM        = 0x0001
	formatIEEEFloat  = 0x0003
	formatExtensible = 0xFFFE
)

// Writers that stream to a pipe cannot seek back to patch the data size and
// leave one of these in the header.
const (
	streamedSizeZero    = 0
	streamedSizeUnknown = 0xFFFFFFFF
)

// The extensible subformat GUID ends in this suffix for every base format;
// its first two bytes carry the format tag.
var subformatSuffix = []byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}

type header struct {
	// formatTag is the resolved sample format; an extensible header
	// reports the tag of its subformat.
	formatTag  uint16
	channels   int
	sampleRate int
	byteRate   int
	blockAlign int
	bitDepth   int

	// dataOffset is where the sample bytes start; dataSize is what the
	// header declares for them.
	dataOffset int64
	dataSize   uint32
}

func (h header) streamed() bool {
	return h.dataSize == streamedSizeZero || h.dataSize == streamedSizeUnknown
}

// readHeader walks the RIFF chunks up to the data chunk.
func readHeader(r io.ReadSeeker) (header, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return header{}, fmt.Errorf("%w: short riff header", ErrInvalidWAV)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return header{}, fmt.Errorf("%w: not a RIFF/WAVE file", ErrInvalidWAV)
	}

	var h header
	seenFmt := false
	pos := int64(len(riff))
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if !seenFmt {
				return header{}, fmt.Errorf("%w: missing fmt chunk", ErrInvalidWAV)
			}
			return header{}, fmt.Errorf("%w: missing data chunk", ErrInvalidWAV)
		}
		pos += int64(len(chunk))
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if err := readFmt(r, size, &h); err != nil {
				return header{}, err
			}
			seenFmt = true
		case "data":
			if !seenFmt {
				return header{}, fmt.Errorf("%w: data chunk before fmt chunk", ErrInvalidWAV)
			}
			h.dataOffset = pos
			h.dataSize = size
			return h, nil
		default:
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return header{}, fmt.Errorf("%w: skip %q chunk: %v", ErrInvalidWAV, id, err)
			}
		}

		pos += int64(size)
		if size%2 == 1 {
			if _, err := r.Seek(1, io.SeekCurrent); err != nil {
				return header{}, fmt.Errorf("%w: skip chunk padding: %v", ErrInvalidWAV, err)
			}
			pos++
		}
	}
}

func readFmt(r io.Reader, size uint32, h *header) error {
	if size < 16 {
		return fmt.Errorf("%w: fmt chunk of %d bytes", ErrInvalidWAV, size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return fmt.Errorf("%w: short fmt chunk", ErrInvalidWAV)
	}

	h.formatTag = binary.LittleEndian.Uint16(body[0:2])
	h.channels = int(binary.LittleEndian.Uint16(body[2:4]))
	h.sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
	h.byteRate = int(binary.LittleEndian.Uint32(body[8:12]))
	h.blockAlign = int(binary.LittleEndian.Uint16(body[12:14]))
	h.bitDepth = int(binary.LittleEndian.Uint16(body[14:16]))

	if h.formatTag == formatExtensible {
		sub, err := extensibleSubformat(body)
		if err != nil {
			return err
		}
		h.formatTag = sub
	}

	if h.channels < 1 || h.sampleRate < 1 || h.bitDepth < 8 || h.blockAlign < 1 {
		return fmt.Errorf("%w: %d channels, %d Hz, %d-bit", ErrInvalidWAV, h.channels, h.sampleRate, h.bitDepth)
	}
	if size%2 == 1 {
		var pad [1]byte
		if _, err := io.ReadFull(r, pad[:]); err != nil {
			return fmt.Errorf("%w: short fmt padding", ErrInvalidWAV)
		}
	}
	return nil
}

// extensibleSubformat reads the format tag out of the subformat GUID of a
// WAVE_FORMAT_EXTENSIBLE fmt chunk.
func extensibleSubformat(body []byte) (uint16, error) {
	if len(body) < 40 {
		return 0, fmt.Errorf("%w: extensible fmt chunk of %d bytes", ErrInvalidWAV, len(body))
	}
	guid := body[24:40]
	if !bytes.Equal(guid[2:], subformatSuffix) {
		return 0, fmt.Errorf("%w: unknown extensible subformat %x", ErrUnsupportedWAV, guid)
	}
	return binary.LittleEndian.Uint16(guid[0:2]), nil
}
