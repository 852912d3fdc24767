package messenger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/artmart/marketplace-engine/internal/config"
	"github.com/artmart/marketplace-engine/internal/entity"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// MessageService fans marketplace activity out to the queue. Completed
// sales are published reliably (publisher confirms); listing actions are
// fire and forget.
type MessageService interface {
	PublishSaleReceipt(receipt entity.SaleReceipt) error
	PublishListingAction(action entity.ListingAction) error
}

type Messenger struct {
	amqpUri string
	conn    *amqp.Connection
}

type Item string

var (
	SaleCompleted  Item = "sale.completed"
	ListingChanged Item = "listing.changed"
)

func (i Item) routingKey() string {
	return fmt.Sprintf("%s.%s", config.Get().Index, i)
}

func NewMessenger(amqpUri string) MessageService {
	return &Messenger{amqpUri: amqpUri}
}

func (m *Messenger) PublishSaleReceipt(receipt entity.SaleReceipt) error {
	return m.publish(SaleCompleted, receipt, true)
}

func (m *Messenger) PublishListingAction(action entity.ListingAction) error {
	return m.publish(ListingChanged, action, false)
}

func (m *Messenger) publish(item Item, payload interface{}, reliable bool) error {
	body, err := json.Marshal(payload)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("item", string(item))).Error("[Queue] Failed to marshal payload")
		return err
	}

	ch, err := m.openChannel()
	if err != nil {
		return err
	}

	ex, ok := exchanges[item]
	if !ok {
		zap.L().With(zap.String("item", string(item))).Error("[Queue] Exchange not found")
		return errors.New("exchange not found")
	}

	if err := ch.ExchangeDeclare(ex.Name, ex.Type, ex.Durable, ex.AutoDeleted, ex.Internal, ex.NoWait, ex.Arguments); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Exchange Declare")
		return err
	}

	if reliable {
		if err := ch.Confirm(false); err != nil {
			zap.L().With(zap.Error(err)).Error("[Queue] Channel could not be put into confirm mode")
			return err
		}

		confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

		defer m.confirmOne(confirms)
	}

	publishing := amqp.Publishing{
		Headers:         amqp.Table{},
		ContentType:     "text/json",
		ContentEncoding: "",
		Body:            body,
		DeliveryMode:    amqp.Transient,
		Priority:        0,
	}

	if err = ch.Publish(ex.Name, item.routingKey(), false, false, publishing); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Exchange Publish")
		return err
	}

	zap.L().With(zap.String("exchange", ex.Name), zap.String("routingKey", item.routingKey())).Info("[Queue] Published message")

	return err
}

func (m *Messenger) openConnection() (*amqp.Connection, error) {
	if m.conn != nil && !m.conn.IsClosed() {
		return m.conn, nil
	}

	conn, err := amqp.Dial(m.amqpUri)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to connect to RabbitMQ")
		return nil, err
	}

	m.conn = conn

	return m.conn, nil
}

func (m *Messenger) openChannel() (*amqp.Channel, error) {
	conn, err := m.openConnection()
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		zap.S().With(zap.Error(err)).Error("[Queue] Failed to open channel")
	}

	return ch, err
}

func (m *Messenger) confirmOne(confirms <-chan amqp.Confirmation) {
	zap.L().Debug("[Queue] Waiting for publish confirmation")

	if confirmed := <-confirms; confirmed.Ack {
		zap.L().Debug("[Queue] Publish confirmed")
	} else {
		zap.L().Debug("[Queue] Publish failed")
	}
}
