package observability

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"chatbot-studio/internal/logger"
)

const errorRoutingKey = "studio.error.unhandled"

// ErrorSink receives errors no handler knew how to answer.
type ErrorSink interface {
	Report(ctx context.Context, err error, fields map[string]any)
	Close() error
}

// ErrorReport is the message published for every reported error.
type ErrorReport struct {
	Service    string         `json:"service"`
	Error      string         `json:"error"`
	RequestID  string         `json:"request_id,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewErrorSink builds an AMQP backed sink, or a sink that only logs when
// AMQP is disabled or unreachable.
func NewErrorSink(amqpURL, exchange string) ErrorSink {
	if amqpURL == "" {
		logrus.Info("error sink disabled, using noop: empty amqp url")
		return noopSink{reason: "empty amqp url"}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		logrus.WithError(err).Warn("error sink disabled, using noop")
		return noopSink{reason: err.Error()}
	}

	ch, err := conn.Channel()
	if err != nil {
		logrus.WithError(err).Warn("error sink disabled, using noop")
		_ = conn.Close()
		return noopSink{reason: err.Error()}
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		logrus.WithError(err).Warn("error sink disabled, using noop")
		_ = ch.Close()
		_ = conn.Close()
		return noopSink{reason: err.Error()}
	}

	logrus.WithField("exchange", exchange).Info("error sink connected")
	return &amqpSink{conn: conn, ch: ch, exchange: exchange}
}

func newReport(ctx context.Context, err error, fields map[string]any) ErrorReport {
	return ErrorReport{
		Service:    "chatbot-studio",
		Error:      err.Error(),
		RequestID:  logger.RequestIDFromContext(ctx),
		Fields:     fields,
		OccurredAt: time.Now().UTC(),
	}
}

type amqpSink struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func (s *amqpSink) Report(ctx context.Context, err error, fields map[string]any) {
	rlog := logger.FromContext(ctx)
	rlog.WithError(err).WithFields(fields).Error("unhandled error")

	body, merr := json.Marshal(newReport(ctx, err, fields))
	if merr != nil {
		rlog.WithError(merr).Error("encode error report")
		incErrorReport("failed")
		return
	}

	// The request context may already be cancelled.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	perr := s.ch.PublishWithContext(pctx, s.exchange, errorRoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if perr != nil {
		rlog.WithError(perr).Error("publish error report")
		incErrorReport("failed")
		return
	}
	incErrorReport("published")
}

func (s *amqpSink) Close() error {
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

type noopSink struct {
	reason string
}

func (noopSink) Report(ctx context.Context, err error, fields map[string]any) {
	logger.FromContext(ctx).WithError(err).WithFields(fields).Error("unhandled error")
	incErrorReport("logged")
}

func (noopSink) Close() error {
	return nil
}

// SinkMode reports the sink mode for logging.
func SinkMode(s ErrorSink) string {
	switch s.(type) {
	case *amqpSink:
		return "amqp"
	case noopSink:
		return "noop"
	default:
		return "unknown"
	}
}

// SinkNoopReason explains why a noop sink was chosen.
func SinkNoopReason(s ErrorSink) string {
	if n, ok := s.(noopSink); ok {
		return n.reason
	}
	return ""
}
