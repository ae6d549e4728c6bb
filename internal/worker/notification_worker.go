package worker

import (
	"context"

	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/service"
)

// Runner consumes the event queue until the context is cancelled.
type Runner interface {
	Run(ctx context.Context)
}

// StartNotificationWorker registers notification handlers and starts the
// dispatcher's consumer goroutine.
func StartNotificationWorker(ctx context.Context, dispatcher events.Dispatcher, notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if runner, ok := dispatcher.(Runner); ok {
		go runner.Run(ctx)
	}
}
