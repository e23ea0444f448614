// Package thumbnail generates down-sampled copies of uploaded images,
// fitted into a bounding box while preserving aspect ratio.
package thumbnail

import (
	"fmt"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// BoxSize is the bounding box side length thumbnails are fitted into,
// per spec.md §3 and §4.5.
const BoxSize = 448

// Generate opens the image at srcPath, fits it into a BoxSize x BoxSize
// box (longest side <= BoxSize, aspect ratio preserved), and writes the
// result to {thumbDir}/{basename(srcPath)}. Re-running it for the same
// source overwrites any existing thumbnail, making the operation
// idempotent.
func Generate(srcPath, thumbDir string) (string, error) {
	img, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}

	thumb := imaging.Fit(img, BoxSize, BoxSize, imaging.Lanczos)

	outPath := filepath.Join(thumbDir, filepath.Base(srcPath))
	if err := imaging.Save(thumb, outPath); err != nil {
		return "", fmt.Errorf("save thumbnail: %w", err)
	}

	return outPath, nil
}
