package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
)

func (l *Loader) loadImage(ctx context.Context, path string) (Document, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Document{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Size() > int64(l.cfg.MaxImageMB)*1024*1024 {
		return Document{}, fmt.Errorf("%w: %s is %d bytes (limit %d MB)", common.ErrTooLarge, filepath.Base(path), st.Size(), l.cfg.MaxImageMB)
	}

	var warns []string
	if constants.IsHEICExt(filepath.Ext(path)) {
		hashHex, err := fileSHA256(path)
		if err != nil {
			return Document{}, err
		}
		out, w, cleanup, err := convertHEICtoPNG(ctx, l.runner, l.logger, l.cfg.HeicConverter, path, l.cfg.ArtifactCacheDir, hashHex)
		warns = append(warns, w...)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			l.logger.Error("heic conversion failed", "path", path, "error", err)
			return Document{Warnings: warns}, err
		}
		path = out
	}

	img, err := decodeImageFile(path)
	if err != nil {
		return Document{Warnings: warns}, err
	}
	return Document{
		Pages:      []Page{{Number: 1, Image: img}},
		TotalPages: 1,
		Warnings:   warns,
	}, nil
}

// decodeImageFile decodes any registered raster format (png, jpeg, gif, bmp, tiff, webp).
func decodeImageFile(path string) (image.Image, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = fh.Close() }()

	img, _, err := image.Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func fileSHA256(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = fh.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, fh); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
