package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/OFFIS-RIT/animekg/backend/pkg/history"

	"github.com/rabbitmq/amqp091-go"
)

// HistoryQueue carries answered questions from the server to the worker.
const HistoryQueue = "qa_history_queue"

// HistoryMsg is the body of a history queue message.
type HistoryMsg struct {
	Message string         `json:"message"`
	Record  history.Record `json:"record"`
}

func EncodeHistoryMsg(r history.Record) ([]byte, error) {
	data, err := json.Marshal(HistoryMsg{Message: "qa answered", Record: r})
	if err != nil {
		return nil, fmt.Errorf("failed to encode history message: %w", err)
	}
	return data, nil
}

func DecodeHistoryMsg(body []byte) (history.Record, error) {
	var msg HistoryMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return history.Record{}, fmt.Errorf("failed to decode history message: %w", err)
	}
	if msg.Record.ID == "" {
		return history.Record{}, fmt.Errorf("history message without record id")
	}
	return msg.Record, nil
}

// HistoryPublisher publishes records on a shared channel. Publishing is
// serialized because an amqp channel must not be used for concurrent
// publishes.
type HistoryPublisher struct {
	mu sync.Mutex
	ch publisher
}

var _ history.Publisher = (*HistoryPublisher)(nil)

func NewHistoryPublisher(ch *amqp091.Channel) *HistoryPublisher {
	return &HistoryPublisher{ch: ch}
}

func (p *HistoryPublisher) PublishRecord(ctx context.Context, r history.Record) error {
	data, err := EncodeHistoryMsg(r)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return PublishFIFO(p.ch, HistoryQueue, data)
}

// ProcessHistoryMessage persists the record carried by body.
func ProcessHistoryMessage(ctx context.Context, saver history.Saver, body []byte) error {
	r, err := DecodeHistoryMsg(body)
	if err != nil {
		return err
	}
	return saver.Save(ctx, r)
}
