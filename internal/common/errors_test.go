package common

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	base := fmt.Errorf("open chat.zip: %w", ErrArchiveInvalid)
	err := NewUserError("The selected file is not a chat export", base)

	assert.ErrorIs(t, err, ErrArchiveInvalid)
	assert.Equal(t, "The selected file is not a chat export", UserMessage(err))
	assert.Contains(t, err.Error(), "archive invalid")

	plain := errors.New("boom")
	assert.Equal(t, "boom", UserMessage(plain))
	assert.Equal(t, "only message", (&UserError{UserMessage: "only message"}).Error())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestSetupLogger_JSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupLogger(&buf, slog.LevelInfo, "json")
	LogWarn("photo skipped", Fields{"file": "IMG-WA0001.jpg"})
	LogDebug("hidden", nil)

	assert.Contains(t, buf.String(), `"msg":"photo skipped"`)
	assert.Contains(t, buf.String(), `"file":"IMG-WA0001.jpg"`)
	assert.NotContains(t, buf.String(), "hidden")
}
