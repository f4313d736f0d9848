package model

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/types"
)

// WebhookEvent is a verified GitHub delivery parsed into one of
// *InstallationEvent, *PushEvent or *UnknownEvent.
type WebhookEvent interface {
	EventType() types.GitHubEvent
}

// InstallationEvent is an installation lifecycle change. InstallationID is
// zero when the payload carried none.
type InstallationEvent struct {
	Action         types.InstallationAction
	InstallationID InstallationID
	Account        *InstallationAccount
}

func (x *InstallationEvent) EventType() types.GitHubEvent { return types.GitHubEventInstallation }

// PushEvent is observed for logging only
type PushEvent struct {
	RepositoryFullName string
	Ref                string
}

func (x *PushEvent) EventType() types.GitHubEvent { return types.GitHubEventPush }

// UnknownEvent is any event without a handler
type UnknownEvent struct {
	Name   types.GitHubEvent
	Action string
}

func (x *UnknownEvent) EventType() types.GitHubEvent { return x.Name }

type webhookEnvelope struct {
	Action       *string              `json:"action"`
	Ref          *string              `json:"ref"`
	Installation *webhookInstallation `json:"installation"`
	Repository   *webhookRepository   `json:"repository"`
}

type webhookInstallation struct {
	ID      flexibleID      `json:"id"`
	Account *webhookAccount `json:"account"`
}

type webhookAccount struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	Type      string `json:"type"`
}

type webhookRepository struct {
	FullName string `json:"full_name"`
}

// flexibleID accepts a JSON number or a string holding a decimal number
type flexibleID int64

func (x *flexibleID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*x = 0
		return nil
	}

	raw := data
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}

	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || v < 0 {
		return goerr.New("id is not a non-negative integer", goerr.V("value", string(data)))
	}
	*x = flexibleID(v)
	return nil
}

// ParseWebhookEvent decodes body according to the X-GitHub-Event header.
// The body must be a JSON object; unknown fields are ignored.
func ParseWebhookEvent(event types.GitHubEvent, body []byte) (WebhookEvent, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, goerr.Wrap(ErrInvalidWebhookPayload, "body is not a JSON object", goerr.V(EventTypeKey, event))
	}

	var env webhookEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, goerr.Wrap(ErrInvalidWebhookPayload, "failed to decode body",
			goerr.V(EventTypeKey, event), goerr.V("cause", err.Error()))
	}

	var action string
	if env.Action != nil {
		action = *env.Action
	}

	switch event {
	case types.GitHubEventInstallation:
		ev := &InstallationEvent{Action: types.InstallationAction(action)}
		if env.Installation != nil {
			ev.InstallationID = InstallationID(env.Installation.ID)
			if a := env.Installation.Account; a != nil {
				ev.Account = &InstallationAccount{
					ID:        OrgID(a.ID),
					Login:     a.Login,
					AvatarURL: a.AvatarURL,
					Type:      a.Type,
				}
			}
		}
		if ev.Action.RequiresInstallationID() && ev.InstallationID == 0 {
			return nil, goerr.Wrap(ErrInvalidWebhookPayload, "installation ID is missing",
				goerr.V(EventTypeKey, event), goerr.V("action", action))
		}
		return ev, nil

	case types.GitHubEventPush:
		ev := &PushEvent{}
		if env.Repository != nil {
			ev.RepositoryFullName = env.Repository.FullName
		}
		if env.Ref != nil {
			ev.Ref = *env.Ref
		}
		return ev, nil

	default:
		return &UnknownEvent{Name: event, Action: action}, nil
	}
}
