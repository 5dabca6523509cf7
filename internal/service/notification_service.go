package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{logger: logger, cfg: cfg}
}

// EventTypes lists the events the service reacts to.
func (n *NotificationService) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTicketDrafted,
		events.EventTicketSubmitted,
		events.EventTicketUpdated,
		events.EventTicketDeleted,
	}
}

// Handle routes one event to its notification channels.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.Int("ticket_id", event.TicketID),
		zap.Int("actor_id", event.Actor.ID),
		zap.Any("payload", event.Payload))

	switch event.Type {
	case events.EventTicketSubmitted:
		// The requester hears about submission; approvers watch the webhook.
		n.sendEmailNotificationStub(ctx, event)
		n.sendWebhookNotificationStub(ctx, event)
	case events.EventTicketDrafted, events.EventTicketUpdated, events.EventTicketDeleted:
		n.sendWebhookNotificationStub(ctx, event)
	}
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", event.Actor.Email),
		zap.Int("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.Int("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
