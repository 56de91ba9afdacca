package verification

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
)

const (
	// DarkBrightnessThreshold is the mean luminance below which an image counts as dark.
	DarkBrightnessThreshold = 40.0
	// BlurDetailThreshold is the luminance standard deviation below which an
	// image counts as blurry or blank.
	BlurDetailThreshold = 15.0

	// MaxImagePixels bounds width*height of a decodable submission. Larger
	// images are refused from their header before any pixel is allocated.
	MaxImagePixels = 40_000_000

	blurPenalty = 40
	darkPenalty = 30
	maxScore    = 100
)

var (
	errEmptyImage = errors.New("image has no pixels")
	errTooLarge   = fmt.Errorf("image exceeds %d pixels", MaxImagePixels)
)

// DecodeError reports an image buffer that could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decode image: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// AnalyzeQuality scores an image by its luminance mean (brightness) and
// standard deviation (detail). Callers should treat a *DecodeError as score 0.
func AnalyzeQuality(data []byte) (QualityResult, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return QualityResult{}, &DecodeError{Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return QualityResult{}, &DecodeError{Err: errEmptyImage}
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return QualityResult{}, &DecodeError{Err: errTooLarge}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return QualityResult{}, &DecodeError{Err: err}
	}
	mean, stddev, err := luminanceStats(img)
	if err != nil {
		return QualityResult{}, &DecodeError{Err: err}
	}
	return scoreQuality(mean, stddev), nil
}

func scoreQuality(mean, stddev float64) QualityResult {
	q := QualityResult{
		IsBlurry:   stddev < BlurDetailThreshold,
		IsDark:     mean < DarkBrightnessThreshold,
		Brightness: mean,
		Detail:     stddev,
	}

	score := maxScore
	if q.IsBlurry {
		score -= blurPenalty
	}
	if q.IsDark {
		score -= darkPenalty
	}
	q.Score = clampScore(score)
	q.Details = fmt.Sprintf("Brightness: %d, Detail: %d", int(mean), int(stddev))
	return q
}

func clampScore(score int) int {
	return max(0, min(maxScore, score))
}

// luminanceStats returns the mean and population standard deviation of the
// 8-bit luma channel (ITU-R 601-2 in 16-bit fixed point, rounded to nearest).
func luminanceStats(img image.Image) (mean, stddev float64, err error) {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n <= 0 {
		return 0, 0, errEmptyImage
	}

	var sum, sumSq float64
	gray, isGray := img.(*image.Gray)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var l uint32
			if isGray {
				l = uint32(gray.GrayAt(x, y).Y)
			} else {
				r, g, bl, _ := img.At(x, y).RGBA()
				l = ((r>>8)*19595 + (g>>8)*38470 + (bl>>8)*7471 + 1<<15) >> 16
			}
			v := float64(l)
			sum += v
			sumSq += v * v
		}
	}

	count := float64(n)
	mean = sum / count
	variance := sumSq/count - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance), nil
}
