package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultSubmitTimeout bounds every request to the processing backend.
const DefaultSubmitTimeout = 30 * time.Second

// Uploader sends an encoded recording and returns the processed reply
type Uploader interface {
	Submit(ctx context.Context, wav []byte) (*Artifact, error)
}

// Submitter posts recordings to the audio processing backend
type Submitter struct {
	endpoint   *url.URL
	httpClient *http.Client
}

// NewSubmitter creates a submitter for the given process_input URL
func NewSubmitter(endpoint string, timeout time.Duration) (*Submitter, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid processing endpoint %q", endpoint)
	}
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	return &Submitter{
		endpoint: u,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Submit sends the container as application/octet-stream. A response typed
// response_audio/* or audio/* is the reply itself; otherwise the JSON body's
// audio_url is resolved against the endpoint origin and downloaded.
func (s *Submitter) Submit(ctx context.Context, wav []byte) (*Artifact, error) {
	log.Printf("🔄 [AUDIO] Sending recording to %s (%d bytes)", s.endpoint.Host, len(wav))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint.String(), bytes.NewReader(wav))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("❌ [AUDIO] Processing backend error: %d - %s", resp.StatusCode, truncate(string(body), 200))
		return nil, fmt.Errorf("POST failed: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if isAudioContentType(contentType) {
		log.Printf("✅ [AUDIO] Received audio reply (%d bytes, %s)", len(body), contentType)
		return newArtifact(body, contentType, ""), nil
	}

	var reply struct {
		AudioURL string `json:"audio_url"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if reply.AudioURL == "" {
		return nil, fmt.Errorf("response JSON did not contain audio_url")
	}

	return s.fetch(ctx, reply.AudioURL)
}

func (s *Submitter) fetch(ctx context.Context, audioURL string) (*Artifact, error) {
	ref, err := url.Parse(audioURL)
	if err != nil {
		return nil, fmt.Errorf("invalid audio_url %q: %w", audioURL, err)
	}
	origin := &url.URL{Scheme: s.endpoint.Scheme, Host: s.endpoint.Host, Path: "/"}
	resolved := origin.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s failed: %w", resolved, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s failed: %d", resolved, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}

	log.Printf("✅ [AUDIO] Downloaded audio reply from %s (%d bytes)", resolved, len(data))
	return newArtifact(data, resp.Header.Get("Content-Type"), resolved.String()), nil
}

func isAudioContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "response_audio/") || strings.HasPrefix(ct, "audio/")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
