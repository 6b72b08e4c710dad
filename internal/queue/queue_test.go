package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/OFFIS-RIT/animekg/backend/pkg/history"
	"github.com/OFFIS-RIT/animekg/backend/pkg/intent"

	"github.com/rabbitmq/amqp091-go"
)

type published struct {
	key string
	msg amqp091.Publishing
}

type fakeChannel struct {
	err       error
	published []published
	declared  []string
	args      map[string]amqp091.Table
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, published{key: key, msg: msg})
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error) {
	f.declared = append(f.declared, name)
	if f.args == nil {
		f.args = map[string]amqp091.Table{}
	}
	f.args[name] = args
	return amqp091.Queue{Name: name}, nil
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(tag uint64, multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func (f *fakeAck) Reject(tag uint64, requeue bool) error {
	return nil
}

func TestSetupQueues(t *testing.T) {
	ch := &fakeChannel{}
	if err := SetupQueues(ch, []string{HistoryQueue}); err != nil {
		t.Fatalf("SetupQueues() error = %v", err)
	}
	want := []string{"qa_history_queue", "qa_history_queue_dlq", "qa_history_queue_retry"}
	if len(ch.declared) != len(want) {
		t.Fatalf("SetupQueues() declared %v, want %v", ch.declared, want)
	}
	for i := range want {
		if ch.declared[i] != want[i] {
			t.Fatalf("SetupQueues() declared %v, want %v", ch.declared, want)
		}
	}
	retry := ch.args["qa_history_queue_retry"]
	if retry["x-dead-letter-routing-key"] != HistoryQueue || retry["x-message-ttl"] != int32(10000) {
		t.Fatalf("retry queue args got = %v", retry)
	}
}

func TestHandleProcessingError(t *testing.T) {
	tests := []struct {
		name        string
		headers     amqp091.Table
		pubErr      error
		wantQueue   string
		wantRetries any
		wantAck     bool
		wantRequeue bool
	}{
		{name: "first failure", headers: nil, wantQueue: "qa_history_queue_retry", wantRetries: int32(1), wantAck: true},
		{name: "retried before", headers: amqp091.Table{"x-retries": int32(4)}, wantQueue: "qa_history_queue_retry", wantRetries: int32(5), wantAck: true},
		{name: "exhausted", headers: amqp091.Table{"x-retries": int32(10)}, wantQueue: "qa_history_queue_dlq", wantRetries: int32(10), wantAck: true},
		{name: "publish fails", pubErr: errors.New("closed"), wantRequeue: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ch := &fakeChannel{err: tc.pubErr}
			ack := &fakeAck{}
			msg := amqp091.Delivery{Acknowledger: ack, Headers: tc.headers, Body: []byte("x")}

			HandleProcessingError(ch, msg, HistoryQueue)

			if ack.acked != tc.wantAck || ack.requeued != tc.wantRequeue {
				t.Fatalf("HandleProcessingError() ack = %+v", ack)
			}
			if tc.pubErr != nil {
				return
			}
			if len(ch.published) != 1 || ch.published[0].key != tc.wantQueue {
				t.Fatalf("HandleProcessingError() published %+v, want %s", ch.published, tc.wantQueue)
			}
			if got := ch.published[0].msg.Headers["x-retries"]; got != tc.wantRetries {
				t.Fatalf("x-retries got = %v, want %v", got, tc.wantRetries)
			}
		})
	}
}

func TestHistoryMsgCodec(t *testing.T) {
	r := history.Record{
		ID:       "abc",
		Query:    "路飞的伙伴是谁？",
		Answer:   "索隆。",
		Intent:   intent.Intent{Mode: intent.ModeGetEntity, Predicates: []string{"HasCompanion"}},
		Evidence: []string{"路飞(Character) -[HasCompanion]-> 索隆(Character)"},
	}
	data, err := EncodeHistoryMsg(r)
	if err != nil {
		t.Fatalf("EncodeHistoryMsg() error = %v", err)
	}
	got, err := DecodeHistoryMsg(data)
	if err != nil {
		t.Fatalf("DecodeHistoryMsg() error = %v", err)
	}
	if got.ID != r.ID || got.Query != r.Query || got.Intent.Mode != r.Intent.Mode || got.Evidence[0] != r.Evidence[0] {
		t.Fatalf("DecodeHistoryMsg() got = %+v, want %+v", got, r)
	}

	for _, body := range []string{`{`, `{"record":{}}`} {
		if _, err := DecodeHistoryMsg([]byte(body)); err == nil {
			t.Fatalf("DecodeHistoryMsg(%s) expected error", body)
		}
	}
}

type fakeSaver struct{ saved []history.Record }

func (f *fakeSaver) Save(ctx context.Context, r history.Record) error {
	f.saved = append(f.saved, r)
	return nil
}

func TestHistoryPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p := &HistoryPublisher{ch: ch}
	if err := p.PublishRecord(context.Background(), history.Record{ID: "r1"}); err != nil {
		t.Fatalf("PublishRecord() error = %v", err)
	}
	if len(ch.published) != 1 || ch.published[0].key != HistoryQueue || ch.published[0].msg.DeliveryMode != amqp091.Persistent {
		t.Fatalf("PublishRecord() published %+v", ch.published)
	}

	saver := &fakeSaver{}
	if err := ProcessHistoryMessage(context.Background(), saver, ch.published[0].msg.Body); err != nil {
		t.Fatalf("ProcessHistoryMessage() error = %v", err)
	}
	if len(saver.saved) != 1 || saver.saved[0].ID != "r1" {
		t.Fatalf("ProcessHistoryMessage() saved %+v", saver.saved)
	}
}

func TestRetries(t *testing.T) {
	tests := []struct {
		in   amqp091.Table
		want int
	}{
		{in: nil, want: 0},
		{in: amqp091.Table{"x-retries": int32(3)}, want: 3},
		{in: amqp091.Table{"x-retries": int64(7)}, want: 7},
		{in: amqp091.Table{"x-retries": "2"}, want: 0},
	}
	for _, tc := range tests {
		if got := Retries(tc.in); got != tc.want {
			t.Fatalf("Retries(%v) got = %d, want %d", tc.in, got, tc.want)
		}
	}
}
