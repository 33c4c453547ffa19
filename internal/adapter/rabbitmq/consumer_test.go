package rabbitmq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeNotificationsDeliversUntilCancelled(t *testing.T) {
	conn := &fakeConnection{
		exchanges:  map[string]string{},
		deliveries: make(chan amqp.Delivery, 2),
	}
	conn.deliveries <- amqp.Delivery{Body: []byte(`{"order_id":"order-1"}`)}
	conn.deliveries <- amqp.Delivery{Body: []byte(`broken`)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 2)
	handler := func(_ context.Context, body []byte) error {
		received <- string(body)
		if string(body) == "broken" {
			return errors.New("bad payload")
		}
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- NewConsumer(conn, logger.NewNop()).ConsumeNotifications(ctx, handler)
	}()

	for _, want := range []string{`{"order_id":"order-1"}`, "broken"} {
		select {
		case got := <-received:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatal("notification was not delivered")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}

	assert.Equal(t, "fanout", conn.exchanges[NotificationsExchange])
	assert.Equal(t, "topic", conn.exchanges[MenuExchange])
	require.Len(t, conn.bindings, 2)
	assert.Equal(t, MenuExchange+"/menu.#", conn.bindings[1])
}
