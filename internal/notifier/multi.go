package notifier

import (
	"context"
	"errors"

	"github.com/amishk599/jobfloor/internal/model"
)

// Ensure Multi implements model.Notifier.
var _ model.Notifier = Multi(nil)

// Multi delivers to every notifier in order and joins their errors.
type Multi []model.Notifier

func (m Multi) Notify(ctx context.Context, trackerName, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, trackerName, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendTestMessage sends a fixed message to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier, trackerName string) error {
	return n.Notify(ctx, trackerName, "Test notification, integration verified")
}
