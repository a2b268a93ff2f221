package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineReader_ReadLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain line", input: "Dani\n", expected: "Dani"},
		{name: "extra whitespace", input: "  Dani Souza  \n", expected: "Dani Souza"},
		{name: "empty line", input: "\n", expected: ""},
		{name: "no trailing newline", input: "2", expected: "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewLineReader(strings.NewReader(tt.input))
			line, err := r.ReadLine(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, line)
		})
	}
}

func TestLineReader_MultipleReadsThenEOF(t *testing.T) {
	r := NewLineReader(strings.NewReader("1\ni\ns\n"))
	ctx := context.Background()

	for _, want := range []string{"1", "i", "s"} {
		line, err := r.ReadLine(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}

	_, err := r.ReadLine(ctx)
	assert.ErrorIs(t, err, io.EOF)
	_, err = r.ReadLine(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReader_Cancellation(t *testing.T) {
	t.Run("already canceled", func(t *testing.T) {
		r := NewLineReader(strings.NewReader("x\n"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := r.ReadLine(ctx)
		assert.Equal(t, ErrInputCancelled, err)
	})

	t.Run("late line goes to the next read", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer func() { _ = pr.Close() }()
		r := NewLineReader(pr)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		_, err := r.ReadLine(ctx)
		assert.Equal(t, ErrInputCancelled, err)

		go func() {
			_, _ = pw.Write([]byte("Rafa\n"))
		}()
		line, err := r.ReadLine(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Rafa", line)
	})
}
