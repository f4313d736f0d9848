package slack

import (
	"context"
	"time"

	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/utils/async"
)

const defaultAsyncTimeout = 10 * time.Second

type asyncNotifier struct {
	next    Notifier
	timeout time.Duration
}

// NewAsync wraps next so that NotifyInstallation returns immediately and the
// message is posted in the background. Failures are only logged.
func NewAsync(next Notifier) Notifier {
	return &asyncNotifier{next: next, timeout: defaultAsyncTimeout}
}

func (n *asyncNotifier) NotifyInstallation(ctx context.Context, ev *model.InstallationEvent) error {
	copied := *ev
	async.Dispatch(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()
		return n.next.NotifyInstallation(ctx, &copied)
	})
	return nil
}
