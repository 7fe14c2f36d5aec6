// Package ingest finds documents on disk and hands them to a submitter.
package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docintel/constants"
)

type FileResult struct {
	Path  string
	JobID uuid.UUID
	Err   string
}

type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Submitted uint32
	Failed    uint32
}

// Submitter accepts one document path and returns its job id.
type Submitter interface {
	Submit(ctx context.Context, path string) (uuid.UUID, error)
}

// ScanDirectory walks root and returns the supported files in lexical order.
// Hidden files and directories are skipped when skipHidden is set.
func ScanDirectory(root string, skipHidden bool) ([]string, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var paths []string
	var stats DirStats
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Failed++
			return nil // continue walking
		}
		if path != root && skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, stats, err
	}
	sort.Strings(paths)
	return paths, stats, nil
}

// SubmitDirectory scans root and submits every supported file. A failed submit
// is recorded in its FileResult and does not stop the walk.
func SubmitDirectory(ctx context.Context, s Submitter, root string, skipHidden bool, logger *slog.Logger) ([]FileResult, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	paths, stats, err := ScanDirectory(root, skipHidden)
	if err != nil {
		return nil, stats, err
	}

	results := make([]FileResult, 0, len(paths))
	for _, p := range paths {
		id, err := s.Submit(ctx, p)
		if err != nil {
			logger.Warn("ingest.submit.failed", "path", p, "error", err)
			results = append(results, FileResult{Path: p, JobID: id, Err: err.Error()})
			stats.Failed++
			continue
		}
		results = append(results, FileResult{Path: p, JobID: id})
		stats.Submitted++
	}
	logger.Info("ingest.directory.ok",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"submitted", stats.Submitted,
		"failed", stats.Failed,
	)
	return results, stats, nil
}

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
