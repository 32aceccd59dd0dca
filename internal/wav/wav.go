// Package wav wraps headerless PCM in a canonical RIFF/WAVE container and
// reads such containers back.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// WAV format constants.
const (
	// HeaderSize is the size of the canonical WAV header in bytes.
	HeaderSize = 44

	// FormatPCM is the audio format code for uncompressed PCM.
	FormatPCM = 1
)

// Provider audio format. Gemini TTS answers with
// "audio/L16;codec=pcm;rate=24000": 16-bit little-endian mono at 24 kHz.
// The rate is never inferred from the payload.
const (
	SampleRate    = 24000
	Channels      = 1
	BitsPerSample = 16
)

// ErrDecode is returned for payloads that are not valid base64.
var ErrDecode = errors.New("audio payload is not valid base64")

// ErrNotWAV is returned by Parse for blobs that are not canonical PCM WAV.
var ErrNotWAV = errors.New("not a canonical PCM WAV container")

// Format describes a linear PCM stream.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// DefaultFormat returns the provider format.
func DefaultFormat() Format {
	return Format{
		SampleRate:    SampleRate,
		Channels:      Channels,
		BitsPerSample: BitsPerSample,
	}
}

// BlockAlign returns the number of bytes per frame.
func (f Format) BlockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// ByteRate returns the number of bytes per second.
func (f Format) ByteRate() int {
	return f.SampleRate * f.BlockAlign()
}

// Duration returns the play time of n bytes of PCM in this format.
func (f Format) Duration(n int) time.Duration {
	if f.ByteRate() == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(f.ByteRate())
}

// Wrap prepends the canonical 44-byte header to pcm. The result is always
// HeaderSize+len(pcm) bytes and depends only on its inputs.
func Wrap(pcm []byte, f Format) []byte {
	dataSize := len(pcm)
	out := make([]byte, HeaderSize, HeaderSize+dataSize)

	le := binary.LittleEndian

	// RIFF header
	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")

	// fmt subchunk
	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], 16)
	le.PutUint16(out[20:22], FormatPCM)
	le.PutUint16(out[22:24], uint16(f.Channels))
	le.PutUint32(out[24:28], uint32(f.SampleRate))
	le.PutUint32(out[28:32], uint32(f.ByteRate()))
	le.PutUint16(out[32:34], uint16(f.BlockAlign()))
	le.PutUint16(out[34:36], uint16(f.BitsPerSample))

	// data subchunk
	copy(out[36:40], "data")
	le.PutUint32(out[40:44], uint32(dataSize))

	return append(out, pcm...)
}

// Parse reads a canonical container produced by Wrap and returns its format
// and a slice of the samples (sharing blob's memory).
func Parse(blob []byte) (Format, []byte, error) {
	if len(blob) < HeaderSize {
		return Format{}, nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrNotWAV, len(blob))
	}
	if string(blob[0:4]) != "RIFF" || string(blob[8:12]) != "WAVE" ||
		string(blob[12:16]) != "fmt " || string(blob[36:40]) != "data" {
		return Format{}, nil, fmt.Errorf("%w: bad chunk ids", ErrNotWAV)
	}

	le := binary.LittleEndian
	if code := le.Uint16(blob[20:22]); code != FormatPCM {
		return Format{}, nil, fmt.Errorf("%w: format code %d", ErrNotWAV, code)
	}

	f := Format{
		Channels:      int(le.Uint16(blob[22:24])),
		SampleRate:    int(le.Uint32(blob[24:28])),
		BitsPerSample: int(le.Uint16(blob[34:36])),
	}

	dataSize := int(le.Uint32(blob[40:44]))
	if dataSize > len(blob)-HeaderSize {
		return Format{}, nil, fmt.Errorf("%w: data chunk claims %d bytes, %d present",
			ErrNotWAV, dataSize, len(blob)-HeaderSize)
	}

	return f, blob[HeaderSize : HeaderSize+dataSize], nil
}
