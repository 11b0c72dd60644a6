package notify

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Webhook mirrors events to a back-office endpoint. Delivery is
// fire-and-forget: a failed post is logged, never propagated to the sale.
type Webhook struct {
	url        string
	httpClient *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the event asynchronously. A nil or unconfigured webhook is a no-op.
func (w *Webhook) Send(eventType string, data interface{}) {
	if w == nil || w.url == "" {
		return
	}

	go func() {
		payload, err := json.Marshal(Event{Type: eventType, Timestamp: time.Now(), Data: data})
		if err != nil {
			return
		}

		resp, err := w.httpClient.Post(w.url, "application/json", bytes.NewReader(payload))
		if err != nil {
			log.Printf("[Notify] Webhook delivery failed: %v", err)
			return
		}
		resp.Body.Close()

		if resp.StatusCode >= 300 {
			log.Printf("[Notify] Webhook returned %d for %s", resp.StatusCode, eventType)
		}
	}()
}
