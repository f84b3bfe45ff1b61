package app

import (
	"context"
	"testing"

	"github.com/skymessage/skymessage/internal/log"
)

func TestApp_Close(t *testing.T) {
	tests := []struct {
		name     string
		setupApp func() *App
	}{
		{
			name: "close with cancel function",
			setupApp: func() *App {
				_, cancel := context.WithCancel(context.Background())
				return &App{cancel: cancel, Logger: log.NewNop()}
			},
		},
		{
			name: "close with nil cancel and nil pool",
			setupApp: func() *App {
				return &App{Logger: log.NewNop()}
			},
		},
		{
			name: "close with otel shutdown",
			setupApp: func() *App {
				return &App{
					Logger:       log.NewNop(),
					otelShutdown: func(context.Context) error { return nil },
				}
			},
		},
		{
			name:     "close zero-value app",
			setupApp: func() *App { return &App{} },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.setupApp().Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}

func TestApp_CloseIdempotent(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	a := &App{cancel: cancel, Logger: log.NewNop()}
	if err := a.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
