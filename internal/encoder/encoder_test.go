package encoder

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func TestNormalizeProducesUnitVector(t *testing.T) {
	v := []float32{3, 4, 0}
	normalize(v)

	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	require.InDelta(t, 1.0, sumSquares, 1e-6)
	require.InDelta(t, 0.6, v[0], 1e-6)
	require.InDelta(t, 0.8, v[1], 1e-6)
}

func TestNormalizeZeroVectorIsNoop(t *testing.T) {
	v := []float32{0, 0, 0}
	normalize(v)
	require.Equal(t, []float32{0, 0, 0}, v)
}

func TestPreprocessImageShape(t *testing.T) {
	dir := t.TempDir()
	img := imaging.New(640, 480, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	path := filepath.Join(dir, "src.png")
	require.NoError(t, imaging.Save(img, path))

	tensor, err := preprocessImage(path)
	require.NoError(t, err)
	require.Len(t, tensor, 3*visionInputSize*visionInputSize)
}
