// Package imageprep проверяет, оценивает качество и пережимает фото перед загрузкой в хранилище.
package imageprep

const (
	// MaxGeneralUploadBytes: потолок для обычных загрузок вне мастера.
	MaxGeneralUploadBytes int64 = 10 * 1024 * 1024
	// MaxWizardUploadBytes: потолок для фото внутри мастера оформления заказа.
	MaxWizardUploadBytes int64 = 5 * 1024 * 1024

	MinWidth  = 600
	MinHeight = 800
	// MaxPixels: предел площади до полного декодирования, около 160 MB в NRGBA.
	MaxPixels = 40_000_000

	DefaultMaxWidth  = 1024
	DefaultMaxHeight = 1536
	DefaultQuality   = 0.85
)

// Scope определяет, какой потолок размера применять.
type Scope string

const (
	ScopeGeneral Scope = "general"
	ScopeWizard  Scope = "wizard"
)

// Limits: потолки размера по областям загрузки.
type Limits struct {
	MaxGeneralBytes int64
	MaxWizardBytes  int64
}

// DefaultLimits возвращает потолки 10 MB / 5 MB.
func DefaultLimits() Limits {
	return Limits{
		MaxGeneralBytes: MaxGeneralUploadBytes,
		MaxWizardBytes:  MaxWizardUploadBytes,
	}
}

// MaxBytes возвращает потолок для области. Неизвестная область получает более строгий лимит мастера.
func (l Limits) MaxBytes(scope Scope) int64 {
	if scope == ScopeGeneral {
		return l.MaxGeneralBytes
	}
	return l.MaxWizardBytes
}
