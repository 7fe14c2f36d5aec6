package document

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/docintel/internal/common"
)

func (l *Loader) loadPDF(ctx context.Context, path string, maxPages int) (Document, error) {
	var warns []string

	total, err := l.pdfPageCount(ctx, path)
	if err != nil {
		// not fatal: fall back to counting what pdftoppm renders
		l.logger.Warn("pdfinfo failed; page count from rendering", "path", path, "error", err)
		warns = append(warns, err.Error())
	}

	tmpDir, err := os.MkdirTemp("", "di-pp-*")
	if err != nil {
		return Document{}, err
	}
	defer func(dir string) {
		if err := os.RemoveAll(dir); err != nil {
			l.logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 100 -png [-f 1 -l N] <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(l.cfg.DPI), "-png"}
	if maxPages > 0 {
		args = append(args, "-f", "1", "-l", strconv.Itoa(maxPages))
	}
	args = append(args, path, prefix)
	if _, errb, err := l.runner.Run(ctx, l.cfg.Pdftoppm, args...); err != nil {
		return Document{Warnings: append(warns, string(errb))}, fmt.Errorf("pdftoppm: %w", err)
	}

	// pdftoppm zero-pads page numbers to a common width, so lexical order is page order
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return Document{Warnings: append(warns, "pdftoppm produced no images")}, fmt.Errorf("%w: %s", common.ErrEmptyDocument, filepath.Base(path))
	}
	if maxPages > 0 && len(matches) > maxPages {
		matches = matches[:maxPages]
	}

	pages := make([]Page, 0, len(matches))
	for i, m := range matches {
		img, err := decodeImageFile(m)
		if err != nil {
			return Document{Warnings: warns}, fmt.Errorf("page %d: %w", i+1, err)
		}
		pages = append(pages, Page{Number: i + 1, Image: img})
	}

	if total < len(pages) {
		total = len(pages)
	}
	return Document{Pages: pages, TotalPages: total, Warnings: warns}, nil
}

// pdfPageCount reads "Pages:" from pdfinfo output.
func (l *Loader) pdfPageCount(ctx context.Context, path string) (int, error) {
	out, errb, err := l.runner.Run(ctx, l.cfg.Pdfinfo, path)
	if err != nil {
		return 0, fmt.Errorf("pdfinfo: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	return parsePdfinfoPages(out)
}

func parsePdfinfoPages(out []byte) (int, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err != nil {
			return 0, fmt.Errorf("pdfinfo: bad page count %q", line)
		}
		return n, nil
	}
	return 0, fmt.Errorf("pdfinfo: no Pages line")
}
