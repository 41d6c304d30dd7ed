package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/fc-integration/inventory/types"
)

// StockEvents publishes types.StockEvent as JSON on a single channel.
type StockEvents struct {
	mq      *MQ
	channel string
}

func NewStockEvents(m *MQ, channel string) *StockEvents {
	return &StockEvents{mq: m, channel: channel}
}

func (s *StockEvents) PublishStockEvent(ctx context.Context, event types.StockEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = s.mq.Publish(ctx, s.channel, data, map[string]string{
		"event_id":   event.ID,
		"action":     string(event.Action),
		"product_id": strconv.Itoa(event.ProductID),
	})
	return err
}

// Subscribe decodes each message and passes it to handle. Undecodable
// payloads are rejected without reaching handle.
func (s *StockEvents) Subscribe(ctx context.Context, handle func(ctx context.Context, event types.StockEvent) error) error {
	return s.mq.Subscribe(ctx, s.channel, func(ctx context.Context, msg Message) error {
		var event types.StockEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return fmt.Errorf("decode stock event %s: %w", msg.ID, err)
		}
		return handle(ctx, event)
	})
}
