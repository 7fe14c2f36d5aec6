package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
)

var (
	magicPDF  = []byte("%PDF-")
	magicPNG  = []byte("\x89PNG\r\n\x1a\n")
	magicJPEG = []byte{0xFF, 0xD8, 0xFF}
	magicGIF  = []byte("GIF8")
	magicBMP  = []byte("BM")
	magicTIFL = []byte("II*\x00")
	magicTIFB = []byte("MM\x00*")
)

// DetectFormat returns constants.PDF or constants.IMAGE for path. The extension
// decides first; files without a known extension are sniffed by magic bytes.
func DetectFormat(path string) (string, error) {
	if f := constants.MapExtToFormat(filepath.Ext(path)); f != "" {
		return f, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = fh.Close() }()

	head := make([]byte, 16)
	n, err := io.ReadFull(fh, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("read header %s: %w", path, err)
	}
	if f := SniffFormat(head[:n]); f != "" {
		return f, nil
	}
	return "", fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, filepath.Base(path))
}

// SniffFormat inspects the leading bytes of a file.
func SniffFormat(head []byte) string {
	switch {
	case bytes.HasPrefix(head, magicPDF):
		return constants.PDF
	case bytes.HasPrefix(head, magicPNG),
		bytes.HasPrefix(head, magicJPEG),
		bytes.HasPrefix(head, magicGIF),
		bytes.HasPrefix(head, magicBMP),
		bytes.HasPrefix(head, magicTIFL),
		bytes.HasPrefix(head, magicTIFB):
		return constants.IMAGE
	case len(head) >= 12 && bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP")):
		return constants.IMAGE
	}
	return ""
}
