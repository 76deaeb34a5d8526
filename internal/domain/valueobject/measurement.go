package valueobject

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) IsValid() bool {
	switch g {
	case "", GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// MeasurementSet: закрытый набор мерок в дюймах. Неизвестные ключи при разборе JSON отклоняются.
type MeasurementSet struct {
	ShoulderWidth    *float64 `json:"shoulder_width,omitempty"`
	Chest            *float64 `json:"chest,omitempty"`
	Waist            *float64 `json:"waist,omitempty"`
	Hip              *float64 `json:"hip,omitempty"`
	Neck             *float64 `json:"neck,omitempty"`
	ArmLength        *float64 `json:"arm_length,omitempty"`
	SleeveLength     *float64 `json:"sleeve_length,omitempty"`
	Bicep            *float64 `json:"bicep,omitempty"`
	Wrist            *float64 `json:"wrist,omitempty"`
	BackLength       *float64 `json:"back_length,omitempty"`
	FrontLength      *float64 `json:"front_length,omitempty"`
	Inseam           *float64 `json:"inseam,omitempty"`
	Outseam          *float64 `json:"outseam,omitempty"`
	Thigh            *float64 `json:"thigh,omitempty"`
	Height           *float64 `json:"height,omitempty"`
	ShoulderToNipple *float64 `json:"shoulder_to_nipple,omitempty"`

	Gender Gender `json:"gender,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// MeasurementField описывает одно поле набора.
type MeasurementField struct {
	Key      string
	Label    string
	Min      float64
	Max      float64
	Required bool
	// FemaleOnly: поле обязательно только при gender = female.
	FemaleOnly bool

	ref func(*MeasurementSet) **float64
}

// MeasurementSchema перечисляет все поля в порядке формы.
var MeasurementSchema = []MeasurementField{
	{Key: "shoulder_width", Label: "Ширина плеч", Min: 12, Max: 24, Required: true, ref: func(m *MeasurementSet) **float64 { return &m.ShoulderWidth }},
	{Key: "chest", Label: "Обхват груди", Min: 24, Max: 60, Required: true, ref: func(m *MeasurementSet) **float64 { return &m.Chest }},
	{Key: "waist", Label: "Обхват талии", Min: 20, Max: 60, Required: true, ref: func(m *MeasurementSet) **float64 { return &m.Waist }},
	{Key: "hip", Label: "Обхват бёдер", Min: 24, Max: 70, Required: true, ref: func(m *MeasurementSet) **float64 { return &m.Hip }},
	{Key: "neck", Label: "Обхват шеи", Min: 10, Max: 24, Required: true, ref: func(m *MeasurementSet) **float64 { return &m.Neck }},
	{Key: "arm_length", Label: "Длина руки", Min: 15, Max: 40, Required: true, ref: func(m *MeasurementSet) **float64 { return &m.ArmLength }},
	{Key: "sleeve_length", Label: "Длина рукава", Min: 10, Max: 40, ref: func(m *MeasurementSet) **float64 { return &m.SleeveLength }},
	{Key: "bicep", Label: "Обхват бицепса", Min: 6, Max: 24, ref: func(m *MeasurementSet) **float64 { return &m.Bicep }},
	{Key: "wrist", Label: "Обхват запястья", Min: 4, Max: 12, ref: func(m *MeasurementSet) **float64 { return &m.Wrist }},
	{Key: "back_length", Label: "Длина спины", Min: 10, Max: 30, ref: func(m *MeasurementSet) **float64 { return &m.BackLength }},
	{Key: "front_length", Label: "Длина переда", Min: 10, Max: 30, ref: func(m *MeasurementSet) **float64 { return &m.FrontLength }},
	{Key: "inseam", Label: "Длина по внутреннему шву", Min: 20, Max: 40, ref: func(m *MeasurementSet) **float64 { return &m.Inseam }},
	{Key: "outseam", Label: "Длина по внешнему шву", Min: 30, Max: 50, ref: func(m *MeasurementSet) **float64 { return &m.Outseam }},
	{Key: "thigh", Label: "Обхват бедра", Min: 12, Max: 40, ref: func(m *MeasurementSet) **float64 { return &m.Thigh }},
	{Key: "height", Label: "Рост", Min: 48, Max: 84, ref: func(m *MeasurementSet) **float64 { return &m.Height }},
	{Key: "shoulder_to_nipple", Label: "От плеча до груди", Min: 6, Max: 16, FemaleOnly: true, ref: func(m *MeasurementSet) **float64 { return &m.ShoulderToNipple }},
}

// Value возвращает значение поля набора или nil.
func (f MeasurementField) Value(m *MeasurementSet) *float64 {
	return *f.ref(m)
}

func (f MeasurementField) requiredFor(g Gender) bool {
	return f.Required || (f.FemaleOnly && g == GenderFemale)
}

func (f MeasurementField) outOfRange(v float64) bool {
	return math.IsNaN(v) || v <= 0 || v < f.Min || v > f.Max
}

func (f MeasurementField) rangeMessage() string {
	return fmt.Sprintf("%s (%s): допустимый диапазон %g–%g дюймов", f.Label, f.Key, f.Min, f.Max)
}

// FieldError: ошибка конкретного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors собирает ошибки по полям.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

func (e FieldErrors) asAppError() error {
	if len(e) == 0 {
		return nil
	}
	return apperror.Wrap(e, apperror.ErrCodeValidation, e.Error())
}

// UnmarshalJSON разбирает набор и отклоняет ключи вне схемы.
func (m *MeasurementSet) UnmarshalJSON(data []byte) error {
	type plain MeasurementSet
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var out plain
	if err := dec.Decode(&out); err != nil {
		return fmt.Errorf("мерки: %w", err)
	}
	*m = MeasurementSet(out)
	return nil
}

// ParseMeasurements разбирает JSON и возвращает ошибку валидации при неизвестных ключах или типах.
func ParseMeasurements(data []byte) (MeasurementSet, error) {
	var m MeasurementSet
	if err := json.Unmarshal(data, &m); err != nil {
		return MeasurementSet{}, apperror.Wrap(err, apperror.ErrCodeValidation, "некорректный набор мерок: "+err.Error())
	}
	return m, nil
}

// ValidatePartial проверяет только заполненные поля: положительность и диапазон.
func (m MeasurementSet) ValidatePartial() error {
	var errs FieldErrors
	if !m.Gender.IsValid() {
		errs = append(errs, FieldError{Field: "gender", Message: "пол: допустимые значения male, female, other"})
	}
	for _, f := range MeasurementSchema {
		v := f.Value(&m)
		if v == nil {
			continue
		}
		if f.outOfRange(*v) {
			errs = append(errs, FieldError{Field: f.Key, Message: f.rangeMessage()})
		}
	}
	return errs.asAppError()
}

// Validate проверяет, что набор полный: все обязательные поля заполнены и в диапазоне.
// shoulder_to_nipple обязателен только для gender = female.
func (m MeasurementSet) Validate() error {
	var errs FieldErrors
	if !m.Gender.IsValid() {
		errs = append(errs, FieldError{Field: "gender", Message: "пол: допустимые значения male, female, other"})
	}
	for _, f := range MeasurementSchema {
		v := f.Value(&m)
		switch {
		case v == nil && f.requiredFor(m.Gender):
			errs = append(errs, FieldError{Field: f.Key, Message: fmt.Sprintf("%s (%s): обязательное поле, %g–%g дюймов", f.Label, f.Key, f.Min, f.Max)})
		case v != nil && f.outOfRange(*v):
			errs = append(errs, FieldError{Field: f.Key, Message: f.rangeMessage()})
		}
	}
	return errs.asAppError()
}

// IsComplete сообщает, прошёл бы набор Validate.
func (m MeasurementSet) IsComplete() bool {
	return m.Validate() == nil
}

// IsEmpty сообщает, что ни одно поле не заполнено.
func (m MeasurementSet) IsEmpty() bool {
	for _, f := range MeasurementSchema {
		if f.Value(&m) != nil {
			return false
		}
	}
	return m.Gender == "" && m.Notes == ""
}

// Each вызывает fn для каждого заполненного поля в порядке схемы.
func (m MeasurementSet) Each(fn func(f MeasurementField, value float64)) {
	for _, f := range MeasurementSchema {
		if v := f.Value(&m); v != nil {
			fn(f, *v)
		}
	}
}
