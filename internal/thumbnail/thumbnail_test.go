package thumbnail

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestGeneratePreservesAspectRatio(t *testing.T) {
	dir := t.TempDir()
	thumbDir := filepath.Join(dir, "thumbs")
	require.NoError(t, os.MkdirAll(thumbDir, 0o755))

	src := writeTestImage(t, dir, "landscape.jpg", 1024, 768)

	outPath, err := Generate(src, thumbDir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(thumbDir, "landscape.jpg"), outPath)

	out, err := imaging.Open(outPath)
	require.NoError(t, err)

	bounds := out.Bounds()
	require.LessOrEqual(t, bounds.Dx(), BoxSize)
	require.LessOrEqual(t, bounds.Dy(), BoxSize)
	require.Equal(t, BoxSize, bounds.Dx()) // longest side hits the box exactly

	wantRatio := 1024.0 / 768.0
	gotRatio := float64(bounds.Dx()) / float64(bounds.Dy())
	require.InDelta(t, wantRatio, gotRatio, 0.02)
}

func TestGenerateIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	thumbDir := filepath.Join(dir, "thumbs")
	require.NoError(t, os.MkdirAll(thumbDir, 0o755))

	src := writeTestImage(t, dir, "portrait.png", 300, 900)

	first, err := Generate(src, thumbDir)
	require.NoError(t, err)
	second, err := Generate(src, thumbDir)
	require.NoError(t, err)
	require.Equal(t, first, second)

	out, err := imaging.Open(second)
	require.NoError(t, err)
	b := out.Bounds()
	require.LessOrEqual(t, b.Dx(), BoxSize)
	require.LessOrEqual(t, b.Dy(), BoxSize)
	require.Equal(t, BoxSize, b.Dy())
}
