package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// RabbitPublisher publishes mail requests to a durable RabbitMQ queue.
// Errors are logged and returned so the caller decides whether the flow
// fails.
type RabbitPublisher struct {
	URL   string
	Queue string
	Log   logrus.FieldLogger
}

func NewRabbitPublisher(url, queueName string, log logrus.FieldLogger) *RabbitPublisher {
	return &RabbitPublisher{URL: url, Queue: queueName, Log: log}
}

// Publish sends req on the default exchange with the queue name as routing
// key.  Messages are marked as persistent.
func (p *RabbitPublisher) Publish(ctx context.Context, req MailRequest) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if err := declareQueue(ch, p.Queue); err != nil {
		p.Log.WithError(err).Warn("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    req.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.Queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		p.Log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}

// Close is a no-op; each Publish owns its connection.
func (p *RabbitPublisher) Close() error { return nil }

func declareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	return err
}
