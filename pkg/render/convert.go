package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/BitEU/linkchart/pkg/errors"
)

// ToPDF converts SVG bytes to PDF using rsvg-convert at the given DPI.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(ctx context.Context, svg []byte, dpi int) ([]byte, error) {
	return rsvgConvert(ctx, svg, "pdf",
		"--dpi-x", fmt.Sprintf("%d", dpi),
		"--dpi-y", fmt.Sprintf("%d", dpi))
}

// ToPNG converts SVG bytes to PNG with the given scale factor. Scale of
// 2.0 produces a 2x resolution image.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	return rsvgConvert(ctx, svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

// rsvgConvert shells out to rsvg-convert for format conversion. The
// context kills the converter mid-run, so a cancelled export never leaves
// a process behind.
func rsvgConvert(ctx context.Context, svg []byte, format string, extraArgs ...string) ([]byte, error) {
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.CommandContext(ctx, "rsvg-convert", args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeExportCancelled, ctx.Err(), "conversion interrupted")
		}
		return nil, errors.Wrap(errors.ErrCodeExportFailed, err, "rsvg-convert: %s", errBuf.String())
	}
	return out.Bytes(), nil
}
