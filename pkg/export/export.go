// Package export produces print-quality artifacts from a chart: landscape
// PDF with a selectable text layer, and high-resolution PNG. Writes are
// atomic; a failed or cancelled export never leaves a partial file at the
// destination.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/BitEU/linkchart/pkg/chart"
	"github.com/BitEU/linkchart/pkg/config"
	"github.com/BitEU/linkchart/pkg/errors"
	"github.com/BitEU/linkchart/pkg/observability"
	"github.com/BitEU/linkchart/pkg/physics"
	"github.com/BitEU/linkchart/pkg/render"
)

// Exporter renders charts to disk.
type Exporter struct {
	cfg    config.Export
	logger *log.Logger
}

// New builds an exporter.
func New(cfg config.Export, logger *log.Logger) *Exporter {
	return &Exporter{cfg: cfg, logger: logger}
}

// Options control a single export run.
type Options struct {
	DPI   int    // 0 means the configured default
	Title string // drawn in the page corner when set
}

// PDF exports the chart to a landscape PDF. The page is always oriented
// wider than tall regardless of how the configured paper size is stated,
// and text labels survive as a selectable layer. The result is validated
// before it replaces anything at path.
func (e *Exporter) PDF(ctx context.Context, snap *physics.Snapshot, ch *chart.Chart, path string, opts Options) error {
	dpi := e.resolveDPI(opts.DPI)
	start := time.Now()
	observability.Export().OnExportStart(ctx, "pdf", dpi)

	pageW, pageH := landscape(e.cfg.PageWidthIn, e.cfg.PageHeightIn)
	pxW := int(pageW * float64(dpi))
	pxH := int(pageH * float64(dpi))

	svg := render.RenderSVG(snap, ch,
		render.WithPageBox(pxW, pxH),
		render.WithTitle(opts.Title),
	)

	pdf, err := render.ToPDF(ctx, svg, dpi)
	if err != nil {
		observability.Export().OnExportComplete(ctx, "pdf", 0, time.Since(start), err)
		return err
	}

	err = e.commit(ctx, path, pdf, validatePDF)
	observability.Export().OnExportComplete(ctx, "pdf", len(pdf), time.Since(start), err)
	if err != nil {
		return err
	}
	e.logger.Info("exported PDF", "path", path, "dpi", dpi,
		"page", formatPage(pageW, pageH), "bytes", len(pdf))
	return nil
}

// PNG exports the chart to a PNG scaled for the requested DPI against the
// 96 DPI SVG baseline.
func (e *Exporter) PNG(ctx context.Context, snap *physics.Snapshot, ch *chart.Chart, path string, opts Options) error {
	dpi := e.resolveDPI(opts.DPI)
	start := time.Now()
	observability.Export().OnExportStart(ctx, "png", dpi)

	svg := render.RenderSVG(snap, ch, render.WithTitle(opts.Title))
	png, err := render.ToPNG(ctx, svg, float64(dpi)/96.0)
	if err != nil {
		observability.Export().OnExportComplete(ctx, "png", 0, time.Since(start), err)
		return err
	}

	err = e.commit(ctx, path, png, nil)
	observability.Export().OnExportComplete(ctx, "png", len(png), time.Since(start), err)
	if err != nil {
		return err
	}
	e.logger.Info("exported PNG", "path", path, "dpi", dpi, "bytes", len(png))
	return nil
}

// SVG exports the raw vector form, useful for further editing.
func (e *Exporter) SVG(ctx context.Context, snap *physics.Snapshot, ch *chart.Chart, path string, opts Options) error {
	start := time.Now()
	observability.Export().OnExportStart(ctx, "svg", 0)

	out := render.RenderSVG(snap, ch, render.WithTitle(opts.Title))
	err := e.commit(ctx, path, out, nil)
	observability.Export().OnExportComplete(ctx, "svg", len(out), time.Since(start), err)
	return err
}

func (e *Exporter) resolveDPI(requested int) int {
	dpi := requested
	if dpi == 0 {
		dpi = e.cfg.DPI
	}
	if dpi < e.cfg.MinDPI {
		e.logger.Warn("requested DPI below print floor, raising",
			"requested", dpi, "floor", e.cfg.MinDPI)
		dpi = e.cfg.MinDPI
	}
	return dpi
}

// commit writes data next to path and renames it into place, validating
// first when a validator is given. The destination is untouched until the
// rename.
func (e *Exporter) commit(ctx context.Context, path string, data []byte, validate func(string) error) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeExportCancelled, err, "export interrupted")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, err, "create output directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, err, "create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeExportFailed, err, "write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, err, "close %s", tmpName)
	}

	if validate != nil {
		if err := validate(tmpName); err != nil {
			return errors.Wrap(errors.ErrCodeExportFailed, err, "output failed validation")
		}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, err, "rename into %s", path)
	}
	return nil
}

func validatePDF(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.ValidateFile(path, conf)
}

// landscape orients a page wider than tall.
func landscape(w, h float64) (float64, float64) {
	if w < h {
		return h, w
	}
	return w, h
}

func formatPage(w, h float64) string {
	return fmt.Sprintf("%gx%gin", w, h)
}
