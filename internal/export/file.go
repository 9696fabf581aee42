// Package export moves badge artifacts out of PitchLens: to disk, to the
// clipboard, to object storage, or into a social share link.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Format is a downloadable artifact type.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat validates a format name. The empty string selects PNG.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPNG, nil
	case FormatSVG, FormatPNG:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Filename is the fixed download name for the format.
func (f Format) Filename() string {
	return "pitchlens-badge." + string(f)
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml; charset=utf-8"
	}
	return "image/png"
}

// WriteFile writes data to dir under the format's fixed filename and returns
// the final path. The write goes through a temporary file that is always
// removed, so a failed export leaves nothing behind.
func WriteFile(dir string, f Format, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pitchlens-badge-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing %s: %w", f.Filename(), err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", f.Filename(), err)
	}

	dest := filepath.Join(dir, f.Filename())
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("saving %s: %w", f.Filename(), err)
	}
	if err := os.Chmod(dest, 0o644); err != nil {
		return "", fmt.Errorf("setting permissions on %s: %w", f.Filename(), err)
	}
	return dest, nil
}
