// internal/events/log.go
package events

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes every event to a logrus logger.
type LogNotifier struct {
	log logrus.FieldLogger
}

func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(ctx context.Context, e Event) {
	entry := l.log.WithFields(logrus.Fields{
		"event.kind": e.Kind,
		"event.page": PageFrom(ctx),
	})
	switch e.Kind {
	case KindNavigate:
		entry.WithField("event.to", e.To).Debug("navigate")
	case KindCartChanged:
		entry.WithField("cart.items", e.ItemCount).Debug("cart changed")
	case KindOrderConfirmed:
		entry.WithField("order.id", e.OrderID).Info(e.Message)
	default:
		if e.Level == LevelError {
			entry.Warn(e.Message)
		} else {
			entry.Info(e.Message)
		}
	}
}
