package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/ponto/internal/model"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		wantErr error
		config  Config
	}{
		{
			name:   "service account",
			config: Config{ServiceAccountPath: "/path/to/key.json", SpreadsheetName: "Ponto", BatchSize: 100},
		},
		{
			name:   "oauth",
			config: Config{ClientID: "id", ClientSecret: "secret", RefreshToken: "token", SpreadsheetID: "abc", BatchSize: 100},
		},
		{
			name:    "partial oauth credentials",
			config:  Config{ClientID: "id", RefreshToken: "token", SpreadsheetID: "abc", BatchSize: 100},
			wantErr: ErrNoAuth,
		},
		{
			name: "both methods",
			config: Config{
				ClientID: "id", ClientSecret: "secret", RefreshToken: "token",
				ServiceAccountPath: "/key.json", SpreadsheetID: "abc", BatchSize: 100,
			},
			wantErr: ErrMultipleAuth,
		},
		{
			name:    "no spreadsheet",
			config:  Config{ServiceAccountPath: "/key.json", BatchSize: 100},
			wantErr: ErrNoSpreadsheet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	zeroBatch := Config{ServiceAccountPath: "/key.json", SpreadsheetName: "Ponto"}
	assert.ErrorContains(t, zeroBatch.Validate(), "batch size must be positive")
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, DefaultSpreadsheetName, c.SpreadsheetName)
	assert.Positive(t, c.BatchSize)
	assert.Equal(t, "A:D", c.appendRange())
	c.SheetName = "Registros 2024"
	assert.Equal(t, "'Registros 2024'!A:D", c.appendRange())
}

func TestRecordRows(t *testing.T) {
	records := []*model.IdentificationRecord{
		{
			EmployeeName: "Ana",
			Date:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Time:         model.MustParseClock("08:00"),
			SourcePhoto:  "/tmp/ponto-123/IMG-20240301-WA0001.jpg",
		},
		{
			EmployeeName: model.NameIgnored,
			Date:         time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			Time:         model.MustParseClock("17:45"),
			SourcePhoto:  "/tmp/ponto-123/IMG-20240302-WA0002.jpg",
		},
	}

	assert.Equal(t, [][]any{
		{"Ana", "01/03/2024", "08:00", "IMG-20240301-WA0001.jpg"},
		{model.NameIgnored, "02/03/2024", "17:45", "IMG-20240302-WA0002.jpg"},
	}, RecordRows(records))
}

func TestNameQuery(t *testing.T) {
	assert.Equal(t,
		`name = 'Ponto d\'Ana' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false`,
		nameQuery("Ponto d'Ana"))
}

func TestMockWriter(t *testing.T) {
	m := NewMockWriter()
	run := model.RunSummary{ID: "run-1"}
	recs := []*model.IdentificationRecord{{EmployeeName: "Ana", SourcePhoto: "a.jpg"}}

	require.NoError(t, m.Export(context.Background(), run, recs))
	m.SetExportError(errors.New("quota"))
	assert.Error(t, m.Export(context.Background(), run, recs))

	calls := m.GetCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "a.jpg", calls[0].Records[0][3])
	assert.Error(t, calls[1].Error)
}

type appendCall struct {
	path   string
	option string
	values [][]any
}

func TestAppendRecords_StoresRawValues(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []appendCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var vr sheets.ValueRange
		_ = json.Unmarshal(body, &vr)

		mu.Lock()
		calls = append(calls, appendCall{
			path:   r.URL.Path,
			option: r.URL.Query().Get("valueInputOption"),
			values: vr.Values,
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	service, err := sheets.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	config := DefaultConfig()
	config.BatchSize = 2
	w := &Writer{
		service:       service,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		spreadsheetID: "sheet-1",
		config:        config,
	}

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []*model.IdentificationRecord{
		{EmployeeName: "Ana", Date: day, Time: model.MustParseClock("08:00"), SourcePhoto: "/tmp/a.jpg"},
		{EmployeeName: "Ana", Date: day, Time: model.MustParseClock("17:00"), SourcePhoto: "/tmp/b.jpg"},
		{EmployeeName: "Dani", Date: day, Time: model.MustParseClock("09:00"), SourcePhoto: "/tmp/c.jpg"},
	}
	require.NoError(t, w.AppendRecords(ctx, records))

	require.Len(t, calls, 2)
	for _, c := range calls {
		assert.Equal(t, "RAW", c.option)
		assert.True(t, strings.HasSuffix(c.path, ":append"), c.path)
		assert.Contains(t, c.path, "sheet-1")
	}
	assert.Equal(t, []any{"Ana", "01/03/2024", "08:00", "a.jpg"}, calls[0].values[0])
	assert.Len(t, calls[1].values, 1)
}
