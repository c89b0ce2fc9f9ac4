package chart

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/Falcon0711/zStock/pkg/errors"
)

// Export writes the current frame as a PNG into dir and returns the full
// path. Before the first paint there is no frame and Export is a silent
// no-op returning an empty path. The frame is copied onto a fresh canvas
// first so the written file never aliases the engine's live buffer.
func (w *Widget) Export(dir string) (string, error) {
	if w.state != StateMounted {
		return "", nil
	}

	frame := w.eng.Snapshot()
	if frame == nil {
		return "", nil
	}

	bounds := frame.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, frame, bounds.Min, draw.Src)

	code := w.code
	if code == "" {
		code = "chart"
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", code, w.cfg.Now().Format("2006-01-02")))

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeExportFailed, "cannot create export file", err)
	}
	defer f.Close()

	if err := png.Encode(f, canvas); err != nil {
		return "", errors.Wrap(errors.ErrCodeExportFailed, "cannot encode export image", err)
	}

	return path, nil
}
