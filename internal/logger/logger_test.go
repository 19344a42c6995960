package logger

import (
	"testing"

	"github.com/aliskhannn/quiz-engine/internal/config"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"local", "production"} {
		t.Run(env, func(t *testing.T) {
			log, err := New(&config.Config{Env: env})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer func() { _ = log.Sync() }()

			if !log.Core().Enabled(log.Level()) {
				t.Error("logger drops its own level")
			}
		})
	}
}
