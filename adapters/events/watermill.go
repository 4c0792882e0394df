// Package events publishes onboarding activity for other service instances
// and downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/prismon-labs/prismon/core"
	"github.com/prismon-labs/prismon/ports"
)

const (
	// SignupTopic carries core.SignupEvent payloads.
	SignupTopic = "users.signup"

	// LoginTopic carries core.LoginEvent payloads.
	LoginTopic = "users.login"
)

// WatermillPublisher implements ports.EventPublisher on a watermill publisher.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher wraps an existing watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishSignup publishes a signup event.
func (p *WatermillPublisher) PublishSignup(ctx context.Context, event core.SignupEvent) error {
	return p.publish(SignupTopic, event)
}

// PublishLogin publishes a login event.
func (p *WatermillPublisher) PublishLogin(ctx context.Context, event core.LoginEvent) error {
	return p.publish(LoginTopic, event)
}

func (p *WatermillPublisher) publish(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), data)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// NopPublisher discards all events. Used when no broker is configured.
type NopPublisher struct{}

// PublishSignup discards the event.
func (NopPublisher) PublishSignup(context.Context, core.SignupEvent) error { return nil }

// PublishLogin discards the event.
func (NopPublisher) PublishLogin(context.Context, core.LoginEvent) error { return nil }

var (
	_ ports.EventPublisher = (*WatermillPublisher)(nil)
	_ ports.EventPublisher = NopPublisher{}
)
