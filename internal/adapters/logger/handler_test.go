package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/symdex/internal/adapters/logger"
)

func TestPrettyHandler(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name string
		log  func(*slog.Logger)
		want string
	}{
		{
			name: "info with attrs",
			log:  func(l *slog.Logger) { l.Info("run finished", "hits", 2, "misses", 1) },
			want: "run finished hits=2 misses=1\n",
		},
		{
			name: "warn",
			log:  func(l *slog.Logger) { l.Warn("slow") },
			want: "! slow\n",
		},
		{
			name: "error",
			log:  func(l *slog.Logger) { l.Error("broken") },
			want: "✗ broken\n",
		},
		{
			name: "handler attrs and group",
			log:  func(l *slog.Logger) { l.With("root", "/repo").WithGroup("store").Info("opened", "backend", "json") },
			want: "opened store.root=/repo store.backend=json\n",
		},
		{
			name: "debug filtered",
			log:  func(l *slog.Logger) { l.Debug("hidden") },
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.log(slog.New(logger.NewPrettyHandler(buf, nil)))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := logger.NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}
