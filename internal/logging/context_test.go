package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"shelfmark/internal/logging"
)

func TestWithContextCarriesStackedAttrs(t *testing.T) {
	ctx := logging.IntoContext(context.Background(), logging.String("request_id", "req-1"))
	ctx = logging.IntoContext(ctx, logging.Int64("item_id", 42))

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WithContext(ctx, logger).Info("hello")

	out := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"item_id":42`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log record missing %s: %s", want, out)
		}
	}
}

func TestWithContextWithoutAttrsReturnsLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	if got := logging.WithContext(context.Background(), logger); got != logger {
		t.Fatal("expected the logger back unchanged when ctx carries no attrs")
	}
	if got := logging.WithContext(context.Background(), nil); got == nil {
		t.Fatal("nil logger should fall back to the nop logger")
	}
}
