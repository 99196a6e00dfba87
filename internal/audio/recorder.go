package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"time"
)

// State is the recorder lifecycle position
type State int

const (
	StateIdle State = iota
	StateRecording
	StateEncoding
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateEncoding:
		return "encoding"
	case StateSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrInvalidTransition is returned when an operation does not apply to the current state.
var ErrInvalidTransition = errors.New("invalid recorder transition")

const (
	defaultChunk = 1024
	levelBuffer  = 32
	drainTimeout = time.Second
)

// Recorder captures samples from a Source, encodes them and hands the container to an Uploader
type Recorder struct {
	source    Source
	uploader  Uploader
	artifacts *Artifacts
	levels    chan float64

	mu      sync.Mutex
	state   State
	stream  Stream
	samples []int16
	rate    int
	elapsed time.Duration
	status  string
	lastErr error
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}

	exhausted chan struct{}
}

// NewRecorder creates an idle recorder
func NewRecorder(source Source, uploader Uploader, artifacts *Artifacts) *Recorder {
	if artifacts == nil {
		artifacts = NewArtifacts()
	}
	return &Recorder{
		source:    source,
		uploader:  uploader,
		artifacts: artifacts,
		levels:    make(chan float64, levelBuffer),
		status:    "Press record to start.",
	}
}

// Levels is a read-only tap of per-chunk RMS levels in [0,1] for waveform display.
// Levels are dropped when the reader falls behind.
func (r *Recorder) Levels() <-chan float64 {
	return r.levels
}

// Artifacts returns the session's reply list
func (r *Recorder) Artifacts() *Artifacts {
	return r.artifacts
}

// State returns the current lifecycle state
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed returns whole seconds recorded so far
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// Status returns the human-readable status line
func (r *Recorder) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Err returns the error of the last failed transition, if any
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Exhausted is closed when the source of the current take runs out of samples.
// Live microphones never close it. Nil before the first Start.
func (r *Recorder) Exhausted() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exhausted
}

// SampleRate returns the rate of the current take, as reported by its source
func (r *Recorder) SampleRate() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rate <= 0 {
		return DefaultSampleRate
	}
	return r.rate
}

// SampleCount returns the number of samples captured in the current take
func (r *Recorder) SampleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// Start opens the source and begins capturing. On failure the recorder stays idle.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return fmt.Errorf("%w: start while %s", ErrInvalidTransition, r.state)
	}

	stream, err := r.source.Open(ctx)
	if err != nil {
		r.fail(fmt.Errorf("microphone access denied: %w", err))
		return r.lastErr
	}

	captureCtx, cancel := context.WithCancel(ctx)
	r.gen++
	r.state = StateRecording
	r.stream = stream
	r.rate = stream.SampleRate()
	r.samples = r.samples[:0]
	r.elapsed = 0
	r.lastErr = nil
	r.status = "Recording..."
	r.cancel = cancel
	r.done = make(chan struct{})
	r.exhausted = make(chan struct{})

	go r.capture(captureCtx, stream, r.gen, r.done, r.exhausted)
	go r.tick(captureCtx, r.gen)

	log.Printf("🎙️  [AUDIO] Recording started (%d Hz)", r.rate)
	return nil
}

func (r *Recorder) capture(ctx context.Context, stream Stream, gen uint64, done, exhausted chan struct{}) {
	defer close(done)
	buf := make([]int16, defaultChunk)

	for {
		if ctx.Err() != nil {
			return
		}

		n, err := stream.Read(buf)
		if n > 0 {
			r.mu.Lock()
			if r.gen == gen {
				r.samples = append(r.samples, buf[:n]...)
			}
			r.mu.Unlock()
			r.emitLevel(rms(buf[:n]))
		}

		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Printf("⚠️  [AUDIO] Capture stopped: %v", err)
			}
			// Source exhausted; keep the take open until Stop or Cancel.
			close(exhausted)
			<-ctx.Done()
			return
		}
	}
}

func (r *Recorder) tick(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.gen == gen && r.state == StateRecording {
				r.elapsed += time.Second
			}
			r.mu.Unlock()
		}
	}
}

func (r *Recorder) emitLevel(level float64) {
	select {
	case r.levels <- level:
	default:
	}
}

// release stops capture and the timer and closes the source. Caller holds mu.
func (r *Recorder) release() chan struct{} {
	r.gen++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.stream != nil {
		if err := r.stream.Close(); err != nil {
			log.Printf("⚠️  [AUDIO] Failed to release source: %v", err)
		}
		r.stream = nil
	}
	done := r.done
	r.done = nil
	return done
}

func (r *Recorder) fail(err error) {
	r.state = StateIdle
	r.lastErr = err
	r.status = "Error: " + err.Error()
}

// Stop ends the take, encodes it and submits it. The recorder returns to idle
// whether or not submission succeeds.
func (r *Recorder) Stop(ctx context.Context) (*Artifact, error) {
	r.mu.Lock()
	if r.state != StateRecording {
		state := r.state
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: stop while %s", ErrInvalidTransition, state)
	}
	done := r.release()
	r.state = StateEncoding
	r.status = "Encoding..."
	r.mu.Unlock()

	waitDone(done)

	r.mu.Lock()
	samples := append([]int16(nil), r.samples...)
	rate := r.rate
	r.samples = r.samples[:0]
	r.mu.Unlock()

	wav := EncodeWAV(samples, rate)
	log.Printf("🎙️  [AUDIO] Recording stopped (%d samples, %.1fs)", len(samples), Duration(len(samples), rate))

	r.mu.Lock()
	r.state = StateSubmitted
	r.status = "Sending to server..."
	r.mu.Unlock()

	artifact, err := r.uploader.Submit(ctx, wav)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.fail(err)
		return nil, err
	}

	r.artifacts.Add(artifact)
	r.state = StateIdle
	r.status = "Recording complete. Press record to record again."
	return artifact, nil
}

// Cancel abandons the take without producing an artifact
func (r *Recorder) Cancel() {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	done := r.release()
	r.state = StateIdle
	r.samples = r.samples[:0]
	r.elapsed = 0
	r.status = "Recording cancelled."
	r.mu.Unlock()

	waitDone(done)
	log.Println("🎙️  [AUDIO] Recording cancelled")
}

// waitDone gives the capture goroutine a moment to exit; a blocked read on a
// non-closable reader is abandoned.
func waitDone(done chan struct{}) {
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(drainTimeout):
	}
}

func rms(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
