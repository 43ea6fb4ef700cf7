package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
)

const (
	// HeaderCorrelationID carries the originating request correlation ID.
	HeaderCorrelationID = "cID"
	// HeaderContentType describes the body encoding.
	HeaderContentType = "content-type"
)

// PublishJSON encodes event as JSON and publishes it with the correlation ID
// from ctx. key, when set, partitions or orders related events.
func PublishJSON(ctx context.Context, pub Publisher, destination, key string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("messaging: encode %s: %w", destination, err)
	}

	headers := map[string]string{HeaderContentType: "application/json"}
	if cID := instrument.GetCorrelationID(ctx); cID != "" {
		headers[HeaderCorrelationID] = cID
	}

	_, err = pub.Publish(ctx, destination, OutgoingMessage{Body: body, Key: key, Headers: headers})
	return err
}

// DecodeJSON decodes msg's body into dst.
func DecodeJSON(msg Message, dst any) error {
	if err := json.Unmarshal(msg.Body(), dst); err != nil {
		return fmt.Errorf("messaging: decode %s: %w", msg.Topic(), err)
	}
	return nil
}
