package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/interfaces"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/domain/types"
	"github.com/m2rads/lime/pkg/service/slack"
	"github.com/m2rads/lime/pkg/utils/logging"
)

// WebhookUseCase reacts to verified GitHub deliveries
type WebhookUseCase struct {
	repo       interfaces.Repository
	connection *ConnectionUseCase
	notifier   slack.Notifier
}

func NewWebhookUseCase(repo interfaces.Repository, connection *ConnectionUseCase, notifier slack.Notifier) *WebhookUseCase {
	return &WebhookUseCase{
		repo:       repo,
		connection: connection,
		notifier:   notifier,
	}
}

// HandleEvent dispatches a parsed delivery to its handler
func (uc *WebhookUseCase) HandleEvent(ctx context.Context, ev model.WebhookEvent) error {
	switch ev := ev.(type) {
	case *model.InstallationEvent:
		return uc.handleInstallation(ctx, ev)

	case *model.PushEvent:
		logging.From(ctx).Info("push received",
			"repository", ev.RepositoryFullName,
			"ref", ev.Ref,
		)
		return nil

	case *model.UnknownEvent:
		logging.From(ctx).Debug("unhandled GitHub event",
			"event", ev.Name,
			"action", ev.Action,
		)
		return nil

	default:
		return goerr.New("unexpected webhook event type", goerr.V(model.EventTypeKey, ev.EventType()))
	}
}

func (uc *WebhookUseCase) handleInstallation(ctx context.Context, ev *model.InstallationEvent) error {
	logger := logging.From(ctx).With(
		"action", ev.Action,
		"installation_id", ev.InstallationID,
	)

	var err error
	switch ev.Action {
	case types.InstallationActionDeleted:
		var removed []*model.Connection
		removed, err = uc.repo.Connection().RemoveByInstallation(ctx, ev.InstallationID)
		if err == nil {
			uc.connection.invalidateConnections(removed)
			logger.Info("installation deleted, connections removed", "count", len(removed))
		}

	case types.InstallationActionSuspend:
		var changed []*model.Connection
		changed, err = uc.repo.Connection().DeactivateByInstallation(ctx, ev.InstallationID)
		if err == nil {
			uc.connection.invalidateConnections(changed)
			logger.Info("installation suspended, connections deactivated", "count", len(changed))
		}

	case types.InstallationActionUnsuspend:
		// reactivation needs the user to pass the setup flow again
		logger.Info("installation unsuspended")

	default:
		logger.Info("installation event received")
	}

	uc.notify(ctx, ev)

	if err != nil {
		return goerr.Wrap(err, "failed to handle installation event",
			goerr.V("action", ev.Action), goerr.V(model.InstallationIDKey, ev.InstallationID))
	}
	return nil
}

func (uc *WebhookUseCase) notify(ctx context.Context, ev *model.InstallationEvent) {
	if uc.notifier == nil || !slack.ShouldNotify(ev.Action) {
		return
	}
	if err := uc.notifier.NotifyInstallation(ctx, ev); err != nil {
		logging.From(ctx).Warn("failed to send installation notification", "error", err)
	}
}
