package ai

import (
	"fmt"
	"strings"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
)

const basePrompt = `Dress the person from the first image in the garment shown in the second image.
Keep the person's face, body shape, pose and background unchanged.
Render the garment tailored to the person's body, with realistic fabric drape and lighting.
Return a single photorealistic image.`

// BuildPrompt собирает промпт для модели. Мерки, если есть, добавляются в дюймах в порядке формы.
func BuildPrompt(m *valueobject.MeasurementSet) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	if m == nil || m.IsEmpty() {
		return b.String()
	}

	b.WriteString("\n\nBody measurements (inches):")
	m.Each(func(f valueobject.MeasurementField, value float64) {
		fmt.Fprintf(&b, "\n- %s: %g", strings.ReplaceAll(f.Key, "_", " "), value)
	})
	if m.Gender != "" {
		fmt.Fprintf(&b, "\nGender: %s", m.Gender)
	}
	if notes := strings.TrimSpace(m.Notes); notes != "" {
		fmt.Fprintf(&b, "\nFit notes: %s", notes)
	}
	return b.String()
}
