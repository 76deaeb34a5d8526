package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"

	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// Dimensions: размеры изображения в пикселях.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// QualityError описывает отклонённое по разрешению фото.
type QualityError struct {
	Reason     string
	Dimensions Dimensions
}

func (e *QualityError) Error() string {
	return fmt.Sprintf("imageprep: %s (%dx%d)", e.Reason, e.Dimensions.Width, e.Dimensions.Height)
}

// CheckQuality читает размеры изображения и отклоняет фото ниже 600x800 или больше MaxPixels.
// Размер файла здесь не учитывается.
func CheckQuality(data []byte) (Dimensions, error) {
	format, err := Validate(data, int64(len(data))+1)
	if err != nil {
		return Dimensions{}, err
	}

	dims, err := readDimensions(format, data)
	if err != nil {
		return dims, err
	}
	if dims.Width < MinWidth || dims.Height < MinHeight {
		qErr := &QualityError{
			Reason: fmt.Sprintf("разрешение фото %dx%d ниже минимального %dx%d",
				dims.Width, dims.Height, MinWidth, MinHeight),
			Dimensions: dims,
		}
		return dims, apperror.Wrap(qErr, apperror.ErrCodeValidation, qErr.Reason)
	}
	return dims, nil
}

// readDimensions читает размеры из заголовка и отклоняет изображения больше MaxPixels.
func readDimensions(format Format, data []byte) (Dimensions, error) {
	cfg, err := decodeConfig(format, bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, apperror.Wrap(err, apperror.ErrCodeValidation, "не удалось прочитать изображение")
	}
	dims := Dimensions{Width: cfg.Width, Height: cfg.Height}
	if int64(dims.Width)*int64(dims.Height) > MaxPixels {
		return dims, apperror.Validation(fmt.Sprintf("слишком большое разрешение фото %dx%d", dims.Width, dims.Height))
	}
	return dims, nil
}

func decodeConfig(format Format, r io.Reader) (image.Config, error) {
	switch format {
	case FormatJPEG:
		return jpeg.DecodeConfig(r)
	case FormatPNG:
		return png.DecodeConfig(r)
	case FormatWebP:
		return webp.DecodeConfig(r)
	}
	return image.Config{}, fmt.Errorf("imageprep: неизвестный формат %q", format)
}
