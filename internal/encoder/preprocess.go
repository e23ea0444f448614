package encoder

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// visionInputSize is the fixed square resolution the image tower's
// vision transformer expects, matching the exported CLIP ONNX graph.
const visionInputSize = 224

// CLIP's published per-channel normalization constants.
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// preprocessImage loads the image at path, center-crops it to a square,
// resizes that square to a fixed resolution with a bicubic filter (the
// resample kernel CLIP's own preprocessing pipeline uses), and returns
// it as a planar CHW float32 tensor normalized to the model's expected
// distribution.
func preprocessImage(path string) ([]float32, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}

	side := min(img.Bounds().Dx(), img.Bounds().Dy())
	square := imaging.CropCenter(img, side, side)

	resized := image.NewRGBA(image.Rect(0, 0, visionInputSize, visionInputSize))
	draw.CatmullRom.Scale(resized, resized.Bounds(), square, square.Bounds(), draw.Over, nil)

	tensor := make([]float32, 3*visionInputSize*visionInputSize)
	plane := visionInputSize * visionInputSize

	for y := 0; y < visionInputSize; y++ {
		for x := 0; x < visionInputSize; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			idx := y*visionInputSize + x
			tensor[0*plane+idx] = (float32(r)/65535.0 - clipMean[0]) / clipStd[0]
			tensor[1*plane+idx] = (float32(g)/65535.0 - clipMean[1]) / clipStd[1]
			tensor[2*plane+idx] = (float32(b)/65535.0 - clipMean[2]) / clipStd[2]
		}
	}

	return tensor, nil
}
