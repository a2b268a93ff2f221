package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Veraticus/ponto/internal/common"
	"github.com/Veraticus/ponto/internal/model"
)

// LegacyEmployee is one entry of a funcionarios.json roster.
type LegacyEmployee struct {
	Name   string   `json:"nome"`
	Email  string   `json:"email"`
	Phone  string   `json:"celular"`
	Status string   `json:"status"`
	Photos []string `json:"fotos"`
}

// ImportStats counts what an import changed.
type ImportStats struct {
	Employees int
	Photos    int
	Skipped   int
}

// ParseLegacyRoster decodes a funcionarios.json roster.
func ParseLegacyRoster(r io.Reader) ([]LegacyEmployee, error) {
	var employees []LegacyEmployee
	if err := json.NewDecoder(r).Decode(&employees); err != nil {
		return nil, fmt.Errorf("failed to decode legacy roster: %w", err)
	}
	return employees, nil
}

// ScanLegacyFolder derives a roster from photo file names, where the text before the first
// underscore is the employee's name.
func ScanLegacyFolder(dir string) ([]LegacyEmployee, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo folder: %w", err)
	}

	byName := make(map[string]*LegacyEmployee)
	for _, e := range entries {
		if e.IsDir() || !(model.MediaCandidate{Path: e.Name()}).IsPhoto() {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		name := model.CanonicalName(strings.ReplaceAll(strings.Split(stem, "_")[0], "-", " "))
		if name == "" {
			continue
		}
		if byName[name] == nil {
			byName[name] = &LegacyEmployee{Name: name, Status: "ativo"}
		}
		byName[name].Photos = append(byName[name].Photos, e.Name())
	}

	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]LegacyEmployee, 0, len(names))
	for _, n := range names {
		out = append(out, *byName[n])
	}
	return out, nil
}

func legacyStatus(s string) model.EmployeeStatus {
	if strings.EqualFold(strings.TrimSpace(s), "inativo") {
		return model.EmployeeInactive
	}
	return model.EmployeeActive
}

// ImportLegacy creates the listed employees and enrolls their photos, resolved relative to photoDir.
// Employees that already exist keep their record and gain the photos. Missing photos are skipped.
func (s *SQLiteStorage) ImportLegacy(ctx context.Context, employees []LegacyEmployee, photoDir string) (ImportStats, error) {
	var stats ImportStats
	if err := validateContext(ctx); err != nil {
		return stats, err
	}

	for _, le := range employees {
		name := model.CanonicalName(le.Name)
		if err := validateEmployeeName(name); err != nil {
			slog.Warn("Skipping legacy employee", "name", le.Name, "error", err)
			stats.Skipped++
			continue
		}

		emp := &model.Employee{Name: name, Email: le.Email, Phone: le.Phone, Status: legacyStatus(le.Status)}
		err := s.CreateEmployee(ctx, emp)
		switch {
		case err == nil:
			stats.Employees++
		case errors.Is(err, common.ErrDuplicateEntry):
		default:
			return stats, err
		}

		for _, photo := range le.Photos {
			path := photo
			if !filepath.IsAbs(path) {
				path = filepath.Join(photoDir, photo)
			}
			if _, err := os.Stat(path); err != nil {
				slog.Warn("Skipping missing legacy photo", "employee", name, "photo", path)
				stats.Skipped++
				continue
			}
			_, err := s.AddEnrollment(ctx, name, path, model.SourceLegacy)
			switch {
			case err == nil:
				stats.Photos++
			case errors.Is(err, common.ErrDuplicateEntry):
				stats.Skipped++
			default:
				return stats, err
			}
		}
	}
	return stats, nil
}
