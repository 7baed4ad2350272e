package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/khaldi-abdarhmane/user-management-microservice/internal/config"
)

const verifyUserEssentialsMethod = "verify_user_essentials"

// AMQPClient implements Client over a RabbitMQ reply-queue RPC exchange.
// The connection is long-lived; each call acquires its own channel and
// exclusive reply queue and releases both on every path.
type AMQPClient struct {
	conn    *amqp.Connection
	cfg     config.AMQPConfig
	logger  *zap.Logger
	timeout time.Duration
}

// NewAMQPClient dials the broker and prepares the RPC exchange.
func NewAMQPClient(cfg config.AMQPConfig, logger *zap.Logger) (*AMQPClient, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPClient{
		conn:    conn,
		cfg:     cfg,
		logger:  logger,
		timeout: cfg.CallTimeout(),
	}, nil
}

// Close releases the broker connection.
func (c *AMQPClient) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// rpcRequest is the wire body published to the remote service.
type rpcRequest struct {
	Args   []any          `json:"args"`
	Kwargs map[string]any `json:"kwargs"`
}

// rpcReply is the wire body returned by the remote service. Result stays a
// pointer: a resolved id of 0 is a real id, only null means "no record".
type rpcReply struct {
	Result *int64 `json:"result"`
	Error  *struct {
		ExcType string `json:"exc_type"`
		Value   string `json:"value"`
	} `json:"error"`
}

// VerifyUserEssentials invokes the remote resolve procedure. Timeouts and
// broker failures surface as ErrRemote.
func (c *AMQPClient) VerifyUserEssentials(ctx context.Context, userID string, address map[string]any) (*int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%w: open channel: %v", ErrRemote, err)
	}
	defer ch.Close()

	replyQueue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: declare reply queue: %v", ErrRemote, err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, replyQueue.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: consume reply queue: %v", ErrRemote, err)
	}

	if address == nil {
		address = map[string]any{}
	}
	body, err := json.Marshal(rpcRequest{Args: []any{userID, address}, Kwargs: map[string]any{}})
	if err != nil {
		return nil, fmt.Errorf("marshal rpc request: %w", err)
	}

	correlationID := uuid.NewString()
	routingKey := fmt.Sprintf("%s.%s", c.cfg.DirectoryService, verifyUserEssentialsMethod)

	err = ch.PublishWithContext(ctx, c.cfg.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: correlationID,
		ReplyTo:       replyQueue.Name,
		Body:          body,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: publish: %v", ErrRemote, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrRemote, ctx.Err())
		case delivery, ok := <-deliveries:
			if !ok {
				return nil, fmt.Errorf("%w: reply channel closed", ErrRemote)
			}
			if delivery.CorrelationId != correlationID {
				continue
			}

			var reply rpcReply
			if err := json.Unmarshal(delivery.Body, &reply); err != nil {
				return nil, fmt.Errorf("%w: decode reply: %v", ErrRemote, err)
			}
			if reply.Error != nil {
				c.logger.Error("directory rpc returned error",
					zap.String("user_id", userID),
					zap.String("exc_type", reply.Error.ExcType),
					zap.String("value", reply.Error.Value))
				return nil, fmt.Errorf("%w: %s: %s", ErrRemote, reply.Error.ExcType, reply.Error.Value)
			}
			return reply.Result, nil
		}
	}
}
