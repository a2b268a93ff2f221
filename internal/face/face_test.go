package face

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ponto/internal/model"
)

// fakeDetector returns the embedding registered for the red value of the top-left pixel,
// or always when set, but only once the image is at least minWidth pixels wide.
type fakeDetector struct {
	faces    map[uint8][]model.Embedding
	always   []model.Embedding
	widths   []int
	minWidth int
	mu       sync.Mutex
}

func (f *fakeDetector) Detect(img image.Image) ([]model.Embedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := img.Bounds()
	f.widths = append(f.widths, b.Dx())
	if b.Dx() < f.minWidth {
		return nil, nil
	}
	if f.always != nil {
		return f.always, nil
	}
	r, _, _, _ := img.At(b.Min.X, b.Min.Y).RGBA()
	return f.faces[uint8(r>>8)], nil
}

func writePhoto(t *testing.T, dir, name string, size int, red uint8) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{R: red, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestEmbedder_FallbackOrder(t *testing.T) {
	tests := []struct {
		name       string
		minWidth   int
		maxDim     int
		want       Strategy
		wantWidths []int
	}{
		{name: "half resolution", minWidth: 20, maxDim: 4096, want: StrategyHalf, wantWidths: []int{20}},
		{name: "full resolution", minWidth: 40, maxDim: 4096, want: StrategyFull, wantWidths: []int{20, 40}},
		{name: "upsampled", minWidth: 160, maxDim: 4096, want: StrategyUpsampled, wantWidths: []int{20, 40, 160}},
		{name: "upsampling capped", minWidth: 80, maxDim: 100, want: StrategyUpsampled, wantWidths: []int{20, 40, 80}},
		{name: "nothing found", minWidth: 1000, maxDim: 4096, want: StrategyNone, wantWidths: []int{20, 40, 160}},
		{name: "no room to upsample", minWidth: 1000, maxDim: 50, want: StrategyNone, wantWidths: []int{20, 40}},
	}

	dir := t.TempDir()
	path := writePhoto(t, dir, "photo.png", 40, 10)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := &fakeDetector{
				minWidth: tt.minWidth,
				always:   []model.Embedding{{0.1, 0.2}},
			}
			emb := NewEmbedder(det, EmbedderConfig{Upsample: 2, MaxDimension: tt.maxDim})

			got, err := emb.EmbedFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Strategy)
			assert.Equal(t, tt.wantWidths, det.widths)
			if tt.want == StrategyNone {
				assert.Empty(t, got.Embeddings)
			} else {
				assert.Len(t, got.Embeddings, 1)
			}
		})
	}
}

func TestEmbedder_CorruptImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))

	_, err := NewEmbedder(&fakeDetector{}, DefaultEmbedderConfig()).EmbedFile(path)
	assert.Error(t, err)
}

func TestRoster_FirstMatch(t *testing.T) {
	ana := model.RosterEntry{EmployeeName: "Ana", Embedding: model.Embedding{0, 0}}
	bruno := model.RosterEntry{EmployeeName: "Bruno", Embedding: model.Embedding{0.9, 0}}

	tests := []struct {
		name      string
		entries   []model.RosterEntry
		query     model.Embedding
		tolerance float64
		want      string
		wantOK    bool
	}{
		{name: "closest within tolerance", entries: []model.RosterEntry{ana, bruno}, query: model.Embedding{0.4, 0}, tolerance: 0.45, want: "Ana", wantOK: true},
		{name: "strict tolerance rejects", entries: []model.RosterEntry{ana, bruno}, query: model.Embedding{0.4, 0}, tolerance: 0.30},
		{
			name:      "first entry wins over nearer one",
			entries:   []model.RosterEntry{ana, {EmployeeName: "Bruno", Embedding: model.Embedding{0.3, 0}}},
			query:     model.Embedding{0.25, 0},
			tolerance: 0.45,
			want:      "Ana",
			wantOK:    true,
		},
		{
			name:      "entries without embedding never match",
			entries:   []model.RosterEntry{{EmployeeName: "Ghost"}, ana},
			query:     model.Embedding{0, 0},
			tolerance: 0.45,
			want:      "Ana",
			wantOK:    true,
		},
		{name: "empty roster", query: model.Embedding{0, 0}, tolerance: 0.45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewRoster(tt.entries...).FirstMatch(tt.query, tt.tolerance)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoster_EnrollAndNames(t *testing.T) {
	r := NewRoster(model.RosterEntry{EmployeeName: "Bruno", Embedding: model.Embedding{1}})
	r.Enroll(model.RosterEntry{EmployeeName: "Ana", Embedding: model.Embedding{2}})
	r.Enroll(model.RosterEntry{EmployeeName: "Bruno", Embedding: model.Embedding{3}})

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"Ana", "Bruno"}, r.Names())
	assert.Equal(t, "Bruno", r.Entries()[2].EmployeeName)
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Distance(model.Embedding{0, 0}, model.Embedding{3, 4}), 1e-9)
	assert.Zero(t, Distance(model.Embedding{1, 1}, model.Embedding{1, 1}))
}

type fakeSource struct {
	enrollments []model.Enrollment
}

func (s fakeSource) ListEnrollments(context.Context) ([]model.Enrollment, error) {
	return s.enrollments, nil
}

func TestLoadRoster(t *testing.T) {
	dir := t.TempDir()
	det := &fakeDetector{faces: map[uint8][]model.Embedding{
		1: {{0, 0}, {5, 5}},
		2: {{1, 1}},
	}}
	source := fakeSource{enrollments: []model.Enrollment{
		{EmployeeName: "Ana", PhotoPath: writePhoto(t, dir, "ana.png", 8, 1)},
		{EmployeeName: "Bruno", PhotoPath: filepath.Join(dir, "missing.png")},
		{EmployeeName: "Carla", PhotoPath: writePhoto(t, dir, "carla.png", 8, 99)},
		{EmployeeName: "Dani", PhotoPath: writePhoto(t, dir, "dani.png", 8, 2)},
	}}

	roster, err := LoadRoster(context.Background(), source, NewEmbedder(det, DefaultEmbedderConfig()))
	require.NoError(t, err)

	entries := roster.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Ana", entries[0].EmployeeName)
	assert.Equal(t, model.Embedding{0, 0}, entries[0].Embedding)
	assert.Equal(t, "Dani", entries[1].EmployeeName)
}

func TestMatcher_Identify(t *testing.T) {
	dir := t.TempDir()
	det := &fakeDetector{faces: map[uint8][]model.Embedding{
		1: {{0.4, 0}},
		2: {{0.4, 0}, {5, 5}},
	}}
	roster := NewRoster(
		model.RosterEntry{EmployeeName: "Ana", Embedding: model.Embedding{0, 0}},
		model.RosterEntry{EmployeeName: "Bruno", Embedding: model.Embedding{0.9, 0}},
	)
	emb := NewEmbedder(det, DefaultEmbedderConfig())
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	item := func(path string) model.AlignedItem {
		return model.AlignedItem{Path: path, Date: date, Time: model.MustParseClock("08:00")}
	}

	t.Run("single face matched", func(t *testing.T) {
		recs, strategy, err := NewMatcher(roster, emb, 0.45).Identify(item(writePhoto(t, dir, "a.png", 8, 1)))
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "Ana", recs[0].EmployeeName)
		assert.Equal(t, StrategyHalf, strategy)
		assert.Equal(t, date, recs[0].Date)
	})

	t.Run("stricter tolerance yields unknown with embedding", func(t *testing.T) {
		recs, _, err := NewMatcher(roster, emb, 0.30).Identify(item(writePhoto(t, dir, "b.png", 8, 1)))
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, model.NameUnknown, recs[0].EmployeeName)
		assert.NotEmpty(t, recs[0].Embedding)
	})

	t.Run("one record per face", func(t *testing.T) {
		recs, _, err := NewMatcher(roster, emb, 0.45).Identify(item(writePhoto(t, dir, "c.png", 8, 2)))
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "Ana", recs[0].EmployeeName)
		assert.Equal(t, model.NameUnknown, recs[1].EmployeeName)
	})

	t.Run("no face yields a single unknown without embedding", func(t *testing.T) {
		recs, strategy, err := NewMatcher(roster, emb, 0.45).Identify(item(writePhoto(t, dir, "d.png", 8, 50)))
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, model.NameUnknown, recs[0].EmployeeName)
		assert.Nil(t, recs[0].Embedding)
		assert.Equal(t, StrategyNone, strategy)
	})

	t.Run("unreadable photo is an error", func(t *testing.T) {
		_, _, err := NewMatcher(roster, emb, 0.45).Identify(item(filepath.Join(dir, "gone.jpg")))
		assert.Error(t, err)
	})

	t.Run("enrollments after construction are visible", func(t *testing.T) {
		shared := NewRoster()
		m := NewMatcher(shared, emb, 0.45)
		shared.Enroll(model.RosterEntry{EmployeeName: "Carla", Embedding: model.Embedding{0.4, 0}})
		recs, _, err := m.Identify(item(writePhoto(t, dir, "e.png", 8, 1)))
		require.NoError(t, err)
		assert.Equal(t, "Carla", recs[0].EmployeeName)
	})
}
