// Package prompt loads the system instructions sent with every completion.
package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
)

//go:embed default.txt
var defaultPrompt string

// Default returns the built-in system prompt.
func Default() string {
	return defaultPrompt
}

// Load reads the system prompt from path. When the file does not exist and
// required is false the built-in prompt is returned instead.
func Load(path string, required bool) (string, error) {
	if path == "" {
		if required {
			return "", errors.New("prompt file path is empty")
		}
		return defaultPrompt, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			slog.Warn("prompt file not found, using built-in prompt", "path", path)
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("read prompt file: %w", err)
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("prompt file %s is empty", path)
	}

	slog.Info("loaded system prompt", "path", path, "bytes", len(data))
	return text, nil
}
