package emitters

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"wave-portal/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

type fakePublisher struct {
	channel  string
	payloads []string
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.channel = channel
	f.payloads = append(f.payloads, message.(string))
	cmd.SetVal(1)
	return cmd
}

func (f *fakePublisher) Close() error {
	return nil
}

var testRecord = models.Record{
	Sender:    "0x95222290DD7278Aa3Ddd389Cc1E1d165CC4BAfe5",
	Timestamp: time.Unix(1700000000, 0).UTC(),
	Message:   "gm",
}

func TestKafkaEmitter_EmitRecord(t *testing.T) {
	writer := &fakeWriter{}
	emitter := &KafkaEmitter{writer: writer}

	if err := emitter.EmitRecord(context.Background(), testRecord); err != nil {
		t.Fatalf("EmitRecord() error = %v", err)
	}
	if len(writer.messages) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(writer.messages))
	}

	msg := writer.messages[0]
	if string(msg.Key) != testRecord.Sender {
		t.Errorf("Key = %s, want sender", msg.Key)
	}
	var got models.Record
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("Value is not JSON: %v", err)
	}
	if !got.Equal(testRecord) {
		t.Errorf("Value = %+v, want %+v", got, testRecord)
	}
}

func TestKafkaEmitter_Errors(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker down")}
	emitter := &KafkaEmitter{writer: writer}

	if err := emitter.EmitRecord(context.Background(), testRecord); err == nil {
		t.Error("EmitRecord() error = nil, want write error")
	}

	if err := emitter.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !writer.closed {
		t.Error("writer not closed")
	}
	if err := emitter.EmitRecord(context.Background(), testRecord); err == nil {
		t.Error("EmitRecord() after Close error = nil")
	}
}

func TestRedisEmitter_EmitRecord(t *testing.T) {
	client := &fakePublisher{}
	emitter := &RedisEmitter{client: client, channel: "waves"}

	if err := emitter.EmitRecord(context.Background(), testRecord); err != nil {
		t.Fatalf("EmitRecord() error = %v", err)
	}
	if client.channel != "waves" || len(client.payloads) != 1 {
		t.Fatalf("published %v on %q", client.payloads, client.channel)
	}

	var got models.Record
	if err := json.Unmarshal([]byte(client.payloads[0]), &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if !got.Equal(testRecord) {
		t.Errorf("payload = %+v, want %+v", got, testRecord)
	}
}

func TestRedisEmitter_PublishError(t *testing.T) {
	emitter := &RedisEmitter{client: &fakePublisher{err: errors.New("connection refused")}, channel: "waves"}
	if err := emitter.EmitRecord(context.Background(), testRecord); err == nil {
		t.Error("EmitRecord() error = nil, want publish error")
	}
}
