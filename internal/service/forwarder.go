package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	q "github.com/pumpup/gym-edge/internal/queue"
)

// Forwarder mirrors activity events to an external backend over HTTP.
// Dispatch is fire-and-forget: the POST runs in its own goroutine with
// its own timeout, failures are logged and never surface to the reader.
type Forwarder struct {
	url    string
	token  string
	client *http.Client
}

// NewForwarder builds a forwarder for the given URL and bearer token.
// An empty URL yields a disabled forwarder.
func NewForwarder(url, token string) *Forwarder {
	return &Forwarder{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled reports whether a target URL is configured.
func (f *Forwarder) Enabled() bool { return f.url != "" }

// Forward dispatches the event to the backend and reports whether a
// dispatch happened.  The returned flag says nothing about delivery;
// it only feeds the side-channel "forwarded" field in responses.
func (f *Forwarder) Forward(event q.ActivityEvent) bool {
	if !f.Enabled() {
		return false
	}
	go f.send(event)
	return true
}

func (f *Forwarder) send(event q.ActivityEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		log.Warnf("forwarder: marshal event failed: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		log.Warnf("forwarder: build request failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		log.Warnf("forwarder: post %s failed: %v", f.url, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Warnf("forwarder: backend returned %d for %s event", resp.StatusCode, event.Kind)
	}
}
