package wav

import (
	"encoding/base64"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nateq/internal/resource"
	"github.com/dgnsrekt/nateq/internal/tts"
)

// Encoder turns base64 provider payloads into playable resource handles.
type Encoder struct {
	format Format
	store  *resource.Store
}

// NewEncoder creates an encoder that writes containers in format f into
// store. A zero sample rate selects the provider default.
func NewEncoder(store *resource.Store, f Format) *Encoder {
	if f.SampleRate == 0 {
		f = DefaultFormat()
	}
	return &Encoder{format: f, store: store}
}

// Format returns the container format the encoder writes.
func (e *Encoder) Format() Format {
	return e.format
}

// Encode decodes the base64 payload, wraps it and stores the container.
// The returned handle is owned by the caller, which must revoke it.
func (e *Encoder) Encode(b64 string) (resource.Handle, error) {
	blob, err := e.EncodeBytes(b64)
	if err != nil {
		return "", err
	}
	h := e.store.Put(blob)
	log.Debug("wav: stored container", "handle", h, "bytes", len(blob),
		"duration", e.format.Duration(len(blob)-HeaderSize))
	return h, nil
}

// EncodeBytes is Encode without the store: it returns the container bytes.
func (e *Encoder) EncodeBytes(b64 string) ([]byte, error) {
	pcm, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeDecode,
			"Received audio could not be decoded.",
			fmt.Errorf("%w: %v", ErrDecode, err))
	}
	return Wrap(pcm, e.format), nil
}
