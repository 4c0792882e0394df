package ports

import (
	"context"

	"github.com/prismon-labs/prismon/core"
)

// EventPublisher notifies other components about onboarding activity.
// Publishing is best effort: a failed publish never fails the request.
type EventPublisher interface {
	PublishSignup(ctx context.Context, event core.SignupEvent) error
	PublishLogin(ctx context.Context, event core.LoginEvent) error
}
