package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-course-api/internal/middleware"
)

// ProgressEvent is broadcast after an enrollment transition or certificate issuance commits.
type ProgressEvent struct {
	Type             string    `json:"type"`
	StudentID        uint      `json:"student_id"`
	CourseID         uint      `json:"course_id"`
	EnrollmentID     uint      `json:"enrollment_id"`
	FromStatus       string    `json:"from_status,omitempty"`
	ToStatus         string    `json:"to_status,omitempty"`
	Progress         int       `json:"progress"`
	VerificationCode string    `json:"verification_code,omitempty"`
	CorrelationID    string    `json:"correlation_id,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// ProgressEventPublisher fans progress events out to downstream consumers.
type ProgressEventPublisher interface {
	Publish(ctx context.Context, event ProgressEvent)
}

type progressEventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	tracer       trace.Tracer
}

// NewProgressEventPublisher publishes on "<channelBase>:progress" over redis pub/sub and on the
// dotted equivalent subject over NATS. Either transport may be nil.
func NewProgressEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) ProgressEventPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":progress"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".progress"
	}

	return &progressEventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "progress_events").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/gema-course-api/internal/service/progress_events"),
	}
}

// Publish is best effort: delivery failures are logged and never returned.
func (p *progressEventPublisher) Publish(ctx context.Context, event ProgressEvent) {
	if (p.redis == nil || p.redisChannel == "") && (p.nats == nil || p.natsSubject == "") {
		return
	}

	if event.CorrelationID == "" {
		event.CorrelationID = middleware.CorrelationIDFromContext(ctx)
	}

	ctx, span := p.tracer.Start(ctx, "progress_events.publish", trace.WithAttributes(
		attribute.String("event.type", event.Type),
		attribute.Int64("student.id", int64(event.StudentID)),
		attribute.Int64("course.id", int64(event.CourseID)),
	))
	defer span.End()

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("type", event.Type).Msg("failed to encode progress event")
		return
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			span.RecordError(err)
			p.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish progress event to redis")
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			span.RecordError(err)
			p.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish progress event to nats")
		}
	}
}

type noopProgressPublisher struct{}

func (noopProgressPublisher) Publish(context.Context, ProgressEvent) {}
