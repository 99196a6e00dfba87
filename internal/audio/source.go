package audio

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
)

// ErrMicUnavailable is returned when the capture device cannot be opened.
var ErrMicUnavailable = errors.New("microphone unavailable")

// Source opens a capture stream
type Source interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream yields mono 16-bit samples until io.EOF
type Stream interface {
	Read(buf []int16) (int, error)
	SampleRate() int
	Close() error
}

// pcmStream decodes raw signed 16-bit little-endian PCM
type pcmStream struct {
	r      *bufio.Reader
	closer io.Closer
	rate   int
	raw    []byte
	carry  []byte
}

func (s *pcmStream) Read(buf []int16) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if cap(s.raw) < len(buf)*2 {
		s.raw = make([]byte, len(buf)*2)
	}
	raw := s.raw[:len(buf)*2]

	for {
		held := copy(raw, s.carry)
		s.carry = s.carry[:0]

		n, err := io.ReadAtLeast(s.r, raw[held:], 1)
		n += held

		frames := n / 2
		if n%2 == 1 {
			s.carry = append(s.carry, raw[n-1])
		}
		for i := 0; i < frames; i++ {
			buf[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
		}
		if frames > 0 {
			return frames, nil
		}
		if err == io.ErrUnexpectedEOF {
			// A trailing odd byte cannot form a sample.
			return 0, io.EOF
		}
		if err != nil {
			return 0, err
		}
	}
}

func (s *pcmStream) SampleRate() int { return s.rate }

func (s *pcmStream) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// ReaderSource reads raw S16LE mono PCM from an io.Reader such as stdin
type ReaderSource struct {
	Reader io.Reader
	Rate   int
}

// Open wraps the reader in a stream
func (s ReaderSource) Open(_ context.Context) (Stream, error) {
	if s.Reader == nil {
		return nil, fmt.Errorf("%w: no input reader", ErrMicUnavailable)
	}
	rate := s.Rate
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	var closer io.Closer
	if c, ok := s.Reader.(io.Closer); ok && s.Reader != os.Stdin {
		closer = c
	}
	return &pcmStream{r: bufio.NewReader(s.Reader), closer: closer, rate: rate}, nil
}

// WAVFileSource replays a mono 16-bit WAV file
type WAVFileSource struct {
	Path string
}

// Open loads the whole file and streams its samples
func (s WAVFileSource) Open(_ context.Context) (Stream, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMicUnavailable, err)
	}
	h, samples, err := DecodeWAV(data)
	if err != nil {
		return nil, err
	}
	return &sliceStream{samples: samples, rate: int(h.SampleRate)}, nil
}

type sliceStream struct {
	samples []int16
	pos     int
	rate    int
}

func (s *sliceStream) Read(buf []int16) (int, error) {
	if s.pos >= len(s.samples) {
		return 0, io.EOF
	}
	n := copy(buf, s.samples[s.pos:])
	s.pos += n
	return n, nil
}

func (s *sliceStream) SampleRate() int { return s.rate }
func (s *sliceStream) Close() error    { return nil }

// CommandSource captures from an external recorder that writes raw PCM to stdout,
// by default ALSA's arecord.
type CommandSource struct {
	Name string
	Args []string
	Rate int
}

// ArecordSource returns a CommandSource for arecord at the given rate
func ArecordSource(rate int) CommandSource {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return CommandSource{
		Name: "arecord",
		Args: []string{"-q", "-f", "S16_LE", "-c", "1", "-r", strconv.Itoa(rate), "-t", "raw"},
		Rate: rate,
	}
}

// Open starts the recorder process
func (s CommandSource) Open(ctx context.Context) (Stream, error) {
	cmd := exec.CommandContext(ctx, s.Name, s.Args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMicUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMicUnavailable, err)
	}
	return &pcmStream{r: bufio.NewReader(stdout), closer: processCloser{cmd}, rate: s.Rate}, nil
}

type processCloser struct{ cmd *exec.Cmd }

func (p processCloser) Close() error {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.cmd.Wait()
	return nil
}
