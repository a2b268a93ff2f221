// Package archive unpacks chat export archives into a scratch workspace.
package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"github.com/Veraticus/ponto/internal/common"
	"github.com/Veraticus/ponto/internal/model"
)

// Workspace is an extracted archive. It owns its directory until Cleanup.
type Workspace struct {
	Dir        string
	Transcript string
	Media      []model.MediaCandidate
	once       sync.Once
}

// Cleanup removes the workspace directory. It is safe to call more than once.
func (w *Workspace) Cleanup() error {
	var err error
	w.once.Do(func() {
		err = os.RemoveAll(w.Dir)
	})
	return err
}

// Unpacker extracts archives under a base temporary directory.
type Unpacker struct {
	tempRoot string
}

// NewUnpacker creates an unpacker. An empty tempRoot uses the OS temp dir.
func NewUnpacker(tempRoot string) *Unpacker {
	return &Unpacker{tempRoot: tempRoot}
}

// Unpack extracts the archive at path and locates its transcript and media.
// On error nothing is left on disk.
func (u *Unpacker) Unpack(ctx context.Context, path string) (*Workspace, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrArchiveInvalid, err)
	}
	defer func() { _ = r.Close() }()
	r.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	r.RegisterDecompressor(zstd.ZipMethodPKWare, zstd.ZipDecompressor())

	dir, err := os.MkdirTemp(u.tempRoot, "ponto-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	ws := &Workspace{Dir: dir}

	if err := extractAll(ctx, &r.Reader, dir); err != nil {
		_ = ws.Cleanup()
		return nil, err
	}

	if err := ws.index(); err != nil {
		_ = ws.Cleanup()
		return nil, err
	}

	slog.Info("Archive unpacked",
		"archive", filepath.Base(path),
		"transcript", filepath.Base(ws.Transcript),
		"media", len(ws.Media))

	return ws, nil
}

func extractAll(ctx context.Context, r *zip.Reader, dir string) error {
	for _, f := range r.File {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		target, ok := safeJoin(dir, f.Name)
		if !ok {
			slog.Warn("Skipping archive entry outside workspace", "entry", f.Name)
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o750); err != nil {
				return fmt.Errorf("failed to create %s: %w", f.Name, err)
			}
			continue
		}

		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("%w: %s: %w", common.ErrArchiveInvalid, f.Name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// safeJoin resolves an entry name under dir, rejecting names that escape it.
func safeJoin(dir, name string) (string, bool) {
	target := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}

// index walks the workspace picking the transcript and collecting media in lexical order.
func (w *Workspace) index() error {
	var firstText, preferred string
	var media []string

	err := filepath.WalkDir(w.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		switch {
		case isPreferredTranscript(name):
			if preferred == "" {
				preferred = path
			}
			if firstText == "" {
				firstText = path
			}
		case IsTranscript(name):
			if firstText == "" {
				firstText = path
			}
		case IsMedia(name):
			media = append(media, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to index workspace: %w", err)
	}

	w.Transcript = preferred
	if w.Transcript == "" {
		w.Transcript = firstText
	}
	if w.Transcript == "" {
		return fmt.Errorf("%w: no transcript file found", common.ErrArchiveInvalid)
	}

	sort.Strings(media)
	w.Media = make([]model.MediaCandidate, len(media))
	for i, p := range media {
		w.Media[i] = model.MediaCandidate{Path: p}
	}
	return nil
}
