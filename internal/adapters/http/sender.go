// Package http implements the BatchSender port over HTTP.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bft-labs/eventship/internal/domain"
	"github.com/bft-labs/eventship/internal/ports"
)

const batchEndpoint = "/v1/import/batch"

// batchPayload is the JSON request body for the ingestion endpoint.
type batchPayload struct {
	Batch  []domain.Event `json:"batch"`
	SentAt time.Time      `json:"sentAt"`
}

// BatchSender implements ports.BatchSender using JSON over HTTP.
//
// It also implements ports.TransportNotifier: when the remote side tears
// down a connection out from under a request, a notice is published for the
// batching core to observe and discard.
type BatchSender struct {
	client  ports.HTTPClient
	logger  ports.Logger
	notices chan ports.TransportNotice
}

// NewBatchSender creates a new HTTP batch sender.
func NewBatchSender(client ports.HTTPClient, logger ports.Logger) *BatchSender {
	return &BatchSender{
		client:  client,
		logger:  logger,
		notices: make(chan ports.TransportNotice, 8),
	}
}

// TransportNotices returns the channel on which connection-level notices are
// delivered.
func (s *BatchSender) TransportNotices() <-chan ports.TransportNotice {
	return s.notices
}

// Send transmits a batch of events to the ingestion service.
func (s *BatchSender) Send(ctx context.Context, batch domain.Batch, metadata ports.SendMetadata) error {
	if batch.Empty() {
		return nil
	}

	body, err := json.Marshal(batchPayload{
		Batch:  batch.Events,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	url := metadata.Endpoint + batchEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+metadata.WriteKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Agent-Hostname", metadata.Hostname)
	req.Header.Set("X-Agent-OSArch", metadata.OSArch)
	if metadata.InstanceID != "" {
		req.Header.Set("X-Eventship-Instance-Id", metadata.InstanceID)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if isConnectionClosed(err) {
			s.notify(ports.TransportNotice{Kind: "connection-closed", Err: err})
		}
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	if resp.Close {
		s.notify(ports.TransportNotice{Kind: "connection-closed"})
	}
	return nil
}

// notify publishes a notice without ever blocking a send.
func (s *BatchSender) notify(n ports.TransportNotice) {
	select {
	case s.notices <- n:
	default:
	}
}

// isConnectionClosed reports whether err looks like the remote closing the
// underlying connection rather than a semantic request failure.
func isConnectionClosed(err error) bool {
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "use of closed network connection")
}
