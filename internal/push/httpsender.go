package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/relaynotify/notifyd/internal/registry"
)

// HTTPSender posts the notification as JSON to a provider endpoint. It is
// a generic stand-in for the real APNs/FCM client libraries: those speak
// HTTP/2 with provider-specific auth, which is out of this service's
// scope — the point here is that the call blocks on a remote server for
// up to several seconds, which is exactly the shape the Thread Budget
// exists to bound.
type HTTPSender struct {
	client   *http.Client
	endpoint func(registry.Platform) string
}

// NewHTTPSender builds a sender using client (or a sane default if nil)
// and endpoint to resolve the provider URL per platform.
func NewHTTPSender(client *http.Client, endpoint func(registry.Platform) string) *HTTPSender {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSender{client: client, endpoint: endpoint}
}

type wirePayload struct {
	Token   string            `json:"token"`
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Payload map[string]string `json:"payload,omitempty"`
}

func (s *HTTPSender) Send(ctx context.Context, d registry.Device, n Notification) error {
	body, err := json.Marshal(wirePayload{Token: d.Token, Title: n.Title, Body: n.Body, Payload: n.Payload})
	if err != nil {
		return fmt.Errorf("push: encoding notification for %s: %w", d.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(d.Platform), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("push: building request for %s: %w", d.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push: sending to %s: %w", d.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push: provider responded %s for device %s", resp.Status, d.ID)
	}
	return nil
}
