package newscast

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"newscast/internal/store"
)

// ScriptRenderer writes the anchor script to a text file. It stands in
// for the external text-to-media encoder: downstream tooling picks the
// script up from disk.
type ScriptRenderer struct{}

func (ScriptRenderer) Render(_ context.Context, script, basePath string) (string, error) {
	path := basePath + ".txt"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		return "", fmt.Errorf("write script: %w", err)
	}
	return path, nil
}

// NoopNotifier logs the generated artifact instead of delivering it.
// Email delivery is an external collaborator.
type NoopNotifier struct {
	log *slog.Logger
}

// NewNoopNotifier creates a notifier that only logs.
func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{log: slog.Default()}
}

func (n *NoopNotifier) Name() string { return "noop" }

func (n *NoopNotifier) Notify(_ context.Context, user store.User, mediaPath string) error {
	n.log.Info("newscast ready for delivery", "user", user.Email, "path", mediaPath)
	return nil
}
