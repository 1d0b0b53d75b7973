package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSessionIDContext(t *testing.T) {
	ctx := context.Background()
	if got := SessionIDFromContext(ctx); got != "" {
		t.Errorf("expected empty session id, got %q", got)
	}
	ctx = WithSessionID(ctx, "s-1")
	if got := SessionIDFromContext(ctx); got != "s-1" {
		t.Errorf("expected s-1, got %q", got)
	}
}

func TestForContextTagsSession(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	l := ForContext(WithSessionID(context.Background(), "abc"))
	l.Info().Msg("hello")
	if !strings.Contains(buf.String(), `"sessionId":"abc"`) {
		t.Errorf("expected sessionId field, got %s", buf.String())
	}
}

func TestLogFrameTruncates(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).Level(zerolog.DebugLevel)
	LogFrame(l, "in", bytes.Repeat([]byte("x"), maxFrameLog+10))
	if !strings.Contains(buf.String(), `"truncated":true`) {
		t.Errorf("expected truncated frame, got %s", buf.String())
	}
	buf.Reset()
	LogFrame(l, "in", nil)
	if buf.Len() != 0 {
		t.Errorf("expected nothing logged for empty frame, got %s", buf.String())
	}
}
