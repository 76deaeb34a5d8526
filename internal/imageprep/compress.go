package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// ContentTypeWebP: тип результата Compress.
const ContentTypeWebP = "image/webp"

// CompressOptions задаёт рамку и качество перекодирования.
type CompressOptions struct {
	MaxWidth  int
	MaxHeight int
	Quality   float64 // 0..1
}

// DefaultCompressOptions возвращает рамку 1024x1536 и качество 0.85.
func DefaultCompressOptions() CompressOptions {
	return CompressOptions{
		MaxWidth:  DefaultMaxWidth,
		MaxHeight: DefaultMaxHeight,
		Quality:   DefaultQuality,
	}
}

func (o CompressOptions) withDefaults() CompressOptions {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = DefaultQuality
	}
	return o
}

// Blob: перекодированное изображение, готовое к загрузке.
type Blob struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Compress вписывает изображение в рамку с сохранением пропорций и кодирует в WebP.
// Изображения меньше рамки не увеличиваются. Одинаковый вход даёт одинаковый выход.
func Compress(data []byte, opts CompressOptions) (*Blob, error) {
	opts = opts.withDefaults()

	format, err := Validate(data, int64(len(data))+1)
	if err != nil {
		return nil, err
	}
	if _, err := readDimensions(format, data); err != nil {
		return nil, err
	}

	img, err := decode(format, data)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "не удалось прочитать изображение")
	}

	b := img.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), opts.MaxWidth, opts.MaxHeight)

	var out image.Image
	if w == b.Dx() && h == b.Dy() {
		out = imaging.Clone(img)
	} else {
		out = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, out, &webp.Options{Quality: float32(opts.Quality * 100)}); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "не удалось сжать изображение")
	}

	return &Blob{
		Data:        buf.Bytes(),
		ContentType: ContentTypeWebP,
		Width:       w,
		Height:      h,
	}, nil
}

// FitWithin возвращает размеры, вписанные в maxW x maxH с сохранением пропорций.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return w, h
	}
	if w <= maxW && h <= maxH {
		return w, h
	}

	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := clamp(int(math.Round(float64(w)*scale)), 1, maxW)
	nh := clamp(int(math.Round(float64(h)*scale)), 1, maxH)
	return nw, nh
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func decode(format Format, data []byte) (image.Image, error) {
	switch format {
	case FormatJPEG, FormatPNG:
		// imaging учитывает EXIF ориентацию у фото с телефона
		return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	case FormatWebP:
		return webp.Decode(bytes.NewReader(data))
	}
	return nil, fmt.Errorf("imageprep: неизвестный формат %q", format)
}
