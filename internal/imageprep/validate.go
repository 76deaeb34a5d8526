package imageprep

import (
	"fmt"

	"github.com/h2non/filetype"

	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// Format: распознанный формат изображения.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// Разрешённые MIME типы, определяются по сигнатуре файла, а не по расширению
var allowedMimeTypes = map[string]Format{
	"image/jpeg": FormatJPEG,
	"image/png":  FormatPNG,
	"image/webp": FormatWebP,
}

// Validate проверяет тип файла по сигнатуре и его размер.
func Validate(data []byte, maxBytes int64) (Format, error) {
	if len(data) == 0 {
		return "", apperror.Validation("файл не может быть пустым")
	}
	if int64(len(data)) > maxBytes {
		return "", apperror.Validation(fmt.Sprintf("размер файла превышает %d МБ", maxBytes/(1024*1024)))
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", apperror.Validation("не удалось определить тип файла, разрешены JPEG, PNG, WebP")
	}

	format, ok := allowedMimeTypes[kind.MIME.Value]
	if !ok {
		return "", apperror.Validation(fmt.Sprintf("тип файла %s не поддерживается, разрешены JPEG, PNG, WebP", kind.MIME.Value))
	}
	return format, nil
}
