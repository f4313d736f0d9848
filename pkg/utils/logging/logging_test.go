package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m2rads/lime/pkg/utils/logging"
)

func TestFromFallsBackToDefault(t *testing.T) {
	gt.Value(t, logging.From(context.Background())).Equal(logging.Default())
}

func TestWithStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelDebug, logging.FormatJSON)

	ctx := logging.With(context.Background(), logger)
	logging.From(ctx).Info("hello", "key", "value")

	gt.Bool(t, strings.Contains(buf.String(), `"key":"value"`)).True()
}

func TestNewRedactsSecrets(t *testing.T) {
	type credentials struct {
		AppID         int64
		WebhookSecret string
		Token         string `masq:"secret"`
	}

	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON)
	logger.Info("config", "credentials", credentials{
		AppID:         1234,
		WebhookSecret: "super-secret-value",
		Token:         "ghs_abcdefg",
	})

	out := buf.String()
	gt.Bool(t, strings.Contains(out, "1234")).True()
	gt.Bool(t, strings.Contains(out, "super-secret-value")).False()
	gt.Bool(t, strings.Contains(out, "ghs_abcdefg")).False()
}

func TestSetDefaultIgnoresNil(t *testing.T) {
	current := logging.Default()
	logging.SetDefault(nil)
	gt.Value(t, logging.Default()).Equal(current)
}
