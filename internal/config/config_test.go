package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/Veraticus/ponto/internal/common"
	"github.com/Veraticus/ponto/internal/face"
	"github.com/Veraticus/ponto/internal/sheets"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("PONTO_TEST_DIR", "/data")

	tests := []struct {
		input    string
		expected string
	}{
		{input: "", expected: ""},
		{input: "~", expected: home},
		{input: "~/ponto/ponto.db", expected: filepath.Join(home, "ponto/ponto.db")},
		{input: "$PONTO_TEST_DIR/photos", expected: "/data/photos"},
		{input: "/abs/path", expected: "/abs/path"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandPath(tt.input))
		})
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings(newViper())
	require.NoError(t, err)

	assert.InDelta(t, face.DefaultTolerance, s.Tolerance, 1e-9)
	assert.Equal(t, 2, s.Upsample)
	assert.Equal(t, 4096, s.MaxUpsampleDimension)
	assert.NotContains(t, s.ModelsDir, "$HOME")

	cfg := s.EngineConfig()
	assert.InDelta(t, face.DefaultTolerance, cfg.Tolerance, 1e-9)
	assert.Equal(t, face.EmbedderConfig{Upsample: 2, MaxDimension: 4096}, cfg.Embedder)
}

func TestLoadSettings_Validation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr bool
	}{
		{name: "lower bound", key: "engine.tolerance", value: 0.35},
		{name: "upper bound", key: "engine.tolerance", value: 0.60},
		{name: "too strict", key: "engine.tolerance", value: 0.2, wantErr: true},
		{name: "too loose", key: "engine.tolerance", value: 0.7, wantErr: true},
		{name: "negative upsample", key: "engine.upsample", value: -1, wantErr: true},
		{name: "no models dir", key: "engine.models_dir", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)

			_, err := LoadSettings(v)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PONTO_DOTENV_TEST=loaded\n"), 0o600))
	t.Setenv("PONTO_DOTENV_TEST", "")
	require.NoError(t, os.Unsetenv("PONTO_DOTENV_TEST"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "loaded", os.Getenv("PONTO_DOTENV_TEST"))
}

func resetSheetsEnv(t *testing.T) {
	t.Helper()
	viper.Reset()
	for _, k := range []string{
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SPREADSHEET_ID",
	} {
		t.Setenv(k, "")
	}
	t.Cleanup(viper.Reset)
}

func TestLoadSheetsConfig(t *testing.T) {
	t.Run("no auth", func(t *testing.T) {
		keyring.MockInit()
		resetSheetsEnv(t)

		_, err := LoadSheetsConfig()
		assert.ErrorIs(t, err, sheets.ErrNoAuth)
	})

	t.Run("environment fallback", func(t *testing.T) {
		keyring.MockInit()
		resetSheetsEnv(t)
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "id")
		t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "secret")
		t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "token")

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "token", cfg.RefreshToken)
		assert.Equal(t, sheets.DefaultSpreadsheetName, cfg.SpreadsheetName)
	})

	t.Run("viper wins over environment", func(t *testing.T) {
		keyring.MockInit()
		resetSheetsEnv(t)
		t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "/env/key.json")
		viper.Set("sheets.service_account_path", "/config/key.json")
		viper.Set("sheets.spreadsheet_id", "abc")

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "/config/key.json", cfg.ServiceAccountPath)
		assert.Equal(t, "abc", cfg.SpreadsheetID)
	})

	t.Run("keyring token", func(t *testing.T) {
		keyring.MockInit()
		resetSheetsEnv(t)
		viper.Set("sheets.client_id", "id")
		viper.Set("sheets.client_secret", "secret")
		require.NoError(t, SaveRefreshToken("saved-token"))

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "saved-token", cfg.RefreshToken)

		require.NoError(t, DeleteRefreshToken())
		require.NoError(t, DeleteRefreshToken())
		token, err := LoadRefreshToken()
		require.NoError(t, err)
		assert.Empty(t, token)
	})
}
