package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sender posts samples to the receiver's /data endpoint.
type Sender struct {
	url        string
	httpClient *http.Client
}

// NewSender constructs a Sender with the given request timeout.
func NewSender(url string, timeout time.Duration) *Sender {
	return &Sender{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send posts one sample. Any non-2xx reply is an error; nothing is retried.
func (s *Sender) Send(ctx context.Context, sample Sample) error {
	body, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("receiver response status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
