package kafka

import (
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestNewConsumerReaderConfig(t *testing.T) {
	c := NewConsumer([]string{"localhost:9092"}, "notifier", "booking_events")
	defer c.Close()

	cfg := c.reader.Config()
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, "notifier", cfg.GroupID)
	assert.Equal(t, "booking_events", cfg.Topic)
	// New groups must pick up events published before the worker started.
	assert.Equal(t, kafkaGo.FirstOffset, cfg.StartOffset)
	assert.Equal(t, time.Second, cfg.MaxWait)
}

func TestConsumerCloseNil(t *testing.T) {
	var c *Consumer
	assert.NoError(t, c.Close())
	assert.NoError(t, (&Consumer{}).Close())
}
