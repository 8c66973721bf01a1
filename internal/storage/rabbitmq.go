package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/tracing"
	"resume-parser-go/internal/types"
)

var mqTracer = otel.Tracer("resume-parser/storage/rabbitmq")

// RabbitMQ 解析完成后向 topic 交换机投递 resume.parsed 事件
type RabbitMQ struct {
	conn           *amqp.Connection
	channels       sync.Pool
	mu             sync.Mutex
	exchange       string
	routingKey     string
	publishTimeout time.Duration
	logger         zerolog.Logger
}

// NewRabbitMQ 连接服务器并声明持久化的事件交换机
func NewRabbitMQ(cfg *config.RabbitMQConfig, logger zerolog.Logger) (*RabbitMQ, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL未配置")
	}
	if cfg.ResumeEventsExchange == "" {
		return nil, fmt.Errorf("RabbitMQ事件交换机未配置")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器: %w", err)
	}

	mq := &RabbitMQ{
		conn:           conn,
		exchange:       cfg.ResumeEventsExchange,
		routingKey:     cfg.ParsedRoutingKey,
		publishTimeout: config.GetDuration(cfg.PublishTimeout, 5*time.Second),
		logger:         logger,
	}
	mq.channels.New = func() interface{} {
		ch, chErr := conn.Channel()
		if chErr != nil {
			logger.Error().Err(chErr).Msg("创建RabbitMQ通道失败")
			return nil
		}
		return ch
	}

	ch, err := mq.acquire()
	if err != nil {
		conn.Close()
		return nil, err
	}
	// topic, durable, 不自动删除
	if err := ch.ExchangeDeclare(mq.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("声明exchange失败: %w", err)
	}
	mq.release(ch)

	logger.Info().Str("exchange", mq.exchange).Str("routing_key", mq.routingKey).Msg("成功连接到RabbitMQ服务器")
	return mq, nil
}

func (r *RabbitMQ) acquire() (*amqp.Channel, error) {
	if ch, ok := r.channels.Get().(*amqp.Channel); ok && ch != nil && !ch.IsClosed() {
		return ch, nil
	}
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("无法获取RabbitMQ通道: %w", err)
	}
	return ch, nil
}

func (r *RabbitMQ) release(ch *amqp.Channel) {
	if ch != nil && !ch.IsClosed() {
		r.channels.Put(ch)
	}
}

// Close 关闭连接
func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}

// send 投递一条持久化JSON消息，当前链路上下文写入消息头
func (r *RabbitMQ) send(ctx context.Context, body []byte) error {
	ctx, span := mqTracer.Start(ctx, r.exchange+" publish", trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination.name", r.exchange),
			attribute.String("messaging.rabbitmq.destination.routing_key", r.routingKey),
			attribute.Int("messaging.message.body.size", len(body)),
		))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	ch, err := r.acquire()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
		return err
	}
	defer r.release(ch)

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := make(amqp.Table, len(carrier))
	for k, v := range carrier {
		headers[k] = v
	}

	err = ch.PublishWithContext(ctx, r.exchange, r.routingKey, false, false, amqp.Publishing{
		Headers:      headers,
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    time.Now(),
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
	}
	return err
}

// NewParsedEvent 由一次解析生成事件消息
func NewParsedEvent(run *types.ParseRun, record *types.ResumeRecord) types.ResumeParsedEvent {
	return types.ResumeParsedEvent{
		RunID:      run.RunID,
		OutputPath: run.OutputPath,
		SourceMD5:  run.SourceMD5,
		PageCount:  run.PageCount,
		Name:       record.Name,
		Counts:     record.Counts(),
		ParsedAt:   run.ParsedAt,
	}
}

// Name 实现发布器接口
func (r *RabbitMQ) Name() string { return "rabbitmq" }

// Publish 发布 resume.parsed 事件
func (r *RabbitMQ) Publish(ctx context.Context, run *types.ParseRun, record *types.ResumeRecord, _ []byte) error {
	ctx, cancel := context.WithTimeout(ctx, r.publishTimeout)
	defer cancel()

	body, err := json.Marshal(NewParsedEvent(run, record))
	if err != nil {
		return fmt.Errorf("序列化解析事件失败: %w", err)
	}
	if err := r.send(ctx, body); err != nil {
		return fmt.Errorf("发布解析事件失败: %w", err)
	}
	r.logger.Info().Str("run_id", run.RunID).Str("routing_key", r.routingKey).Msg("解析事件已发布")
	return nil
}
