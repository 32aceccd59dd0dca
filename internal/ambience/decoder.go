package ambience

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Decoder turns an encoded clip (ogg, mp3, ...) into s16le mono PCM at
// sampleRate.
type Decoder interface {
	Decode(ctx context.Context, encoded []byte, sampleRate int) ([]byte, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(ctx context.Context, encoded []byte, sampleRate int) ([]byte, error)

// Decode calls f.
func (f DecoderFunc) Decode(ctx context.Context, encoded []byte, sampleRate int) ([]byte, error) {
	return f(ctx, encoded, sampleRate)
}

// ErrFFmpegTimeout is returned when conversion exceeds the decoder timeout.
var ErrFFmpegTimeout = errors.New("ffmpeg conversion timed out")

// FFmpeg decodes by piping the clip through an ffmpeg subprocess.
type FFmpeg struct {
	Binary  string        // defaults to "ffmpeg"
	Timeout time.Duration // defaults to 30s
}

// Decode runs ffmpeg with the clip on stdin and collects raw PCM from
// stdout. On timeout the process is interrupted, then killed.
func (f FFmpeg) Decode(ctx context.Context, encoded []byte, sampleRate int) ([]byte, error) {
	bin := f.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command(bin,
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", fmt.Sprint(sampleRate),
		"-ac", "1",
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(encoded)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", bin, err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
	case <-ctx.Done():
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
			_ = cmd.Process.Kill()
			<-done
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrFFmpegTimeout, timeout)
		}
		return nil, ctx.Err()
	}

	pcm := stdout.Bytes()
	if len(pcm) == 0 {
		return nil, errors.New("ffmpeg produced no audio")
	}
	// Keep whole 16-bit samples only.
	return pcm[:len(pcm)&^1], nil
}
