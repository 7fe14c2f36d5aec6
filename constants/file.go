package constants

import "strings"

// Source formats understood by the document loader.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// FileTypes holds the allowed values for a document's format.
var FileTypes = []string{PDF, IMAGE}

// AllowedExtensions holds the extensions picked up by batch runs.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"tif":  {},
	"tiff": {},
	"bmp":  {},
	"gif":  {},
	"webp": {},
	"heic": {},
	"heif": {},
}

// MaxImageMBDefault caps the size of a single raster input.
const MaxImageMBDefault = 20

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps an extension (with or without dot) to PDF or IMAGE; "" when unsupported.
func MapExtToFormat(ext string) string {
	e := NormalizeExt(ext)
	if e == "pdf" {
		return PDF
	}
	if _, ok := AllowedExtensions[e]; ok {
		return IMAGE
	}
	return ""
}

// IsHEICExt reports whether ext is one of the HEIC/HEIF variants.
func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif", "heics", "heifs":
		return true
	}
	return false
}
