package slack_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/domain/types"
	"github.com/m2rads/lime/pkg/service/slack"
)

func TestNotifyInstallation(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		gt.NoError(t, err).Required()
		gt.NoError(t, json.Unmarshal(body, &received)).Required()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier, err := slack.New(srv.URL)
	gt.NoError(t, err).Required()

	err = notifier.NotifyInstallation(t.Context(), &model.InstallationEvent{
		Action:         types.InstallationActionDeleted,
		InstallationID: 42,
		Account:        &model.InstallationAccount{ID: 1001, Login: "acme"},
	})
	gt.NoError(t, err).Required()
	gt.Value(t, received["text"]).Equal("GitHub App uninstalled from *acme*")
}

func TestNotifyInstallation_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	notifier, err := slack.New(srv.URL)
	gt.NoError(t, err).Required()

	err = notifier.NotifyInstallation(t.Context(), &model.InstallationEvent{
		Action:         types.InstallationActionCreated,
		InstallationID: 42,
	})
	gt.Value(t, err).NotNil()
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := slack.New("")
	gt.Value(t, err).NotNil()
}

func TestShouldNotify(t *testing.T) {
	gt.Bool(t, slack.ShouldNotify(types.InstallationActionCreated)).True()
	gt.Bool(t, slack.ShouldNotify(types.InstallationActionDeleted)).True()
	gt.Bool(t, slack.ShouldNotify(types.InstallationActionSuspend)).True()
	gt.Bool(t, slack.ShouldNotify(types.InstallationActionUnsuspend)).False()
	gt.Bool(t, slack.ShouldNotify(types.InstallationActionNewPerms)).False()
}

func TestBuildInstallationMessage_UnknownAccount(t *testing.T) {
	msg := slack.BuildInstallationMessage(&model.InstallationEvent{
		Action:         types.InstallationActionSuspend,
		InstallationID: 7,
	})
	gt.Value(t, msg.Text).Equal("GitHub App suspended on *unknown account*")
	gt.Array(t, msg.Blocks.BlockSet).Length(2)
}

func TestNewAsync(t *testing.T) {
	received := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg map[string]any
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &msg)
		text, _ := msg["text"].(string)
		received <- text
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	inner, err := slack.New(srv.URL)
	gt.NoError(t, err).Required()

	ctx, cancel := context.WithCancel(t.Context())
	err = slack.NewAsync(inner).NotifyInstallation(ctx, &model.InstallationEvent{
		Action:         types.InstallationActionCreated,
		InstallationID: 7,
		Account:        &model.InstallationAccount{ID: 1, Login: "acme"},
	})
	cancel()
	gt.NoError(t, err).Required()

	select {
	case text := <-received:
		gt.Value(t, text).Equal("GitHub App installed on *acme*")
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}
}

type blockingNotifier struct {
	done chan error
}

func (n *blockingNotifier) NotifyInstallation(ctx context.Context, ev *model.InstallationEvent) error {
	<-ctx.Done()
	n.done <- ctx.Err()
	return ctx.Err()
}

func TestNewAsync_Timeout(t *testing.T) {
	inner := &blockingNotifier{done: make(chan error, 1)}

	err := slack.NewAsyncWithTimeout(inner, 50*time.Millisecond).NotifyInstallation(t.Context(), &model.InstallationEvent{
		Action:         types.InstallationActionDeleted,
		InstallationID: 7,
	})
	gt.NoError(t, err).Required()

	select {
	case err := <-inner.done:
		gt.Error(t, err).Is(context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("background post was not cancelled")
	}
}
