package events

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange = "ecommerce.events"
	producerName   = "storefront-go"

	CartItemAddedRoutingKey       = "storefront.cart.item-added.v1"
	CartQuantityChangedRoutingKey = "storefront.cart.quantity-changed.v1"
	CartItemRemovedRoutingKey     = "storefront.cart.item-removed.v1"
	CheckoutSubmittedRoutingKey   = "storefront.checkout.submitted.v1"
)

type exchangeDeclarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
}

func declareEventsExchange(ch exchangeDeclarer) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}

// Dial connects to RabbitMQ at url.
func Dial(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	return conn, nil
}
