package valueobject

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

func f(v float64) *float64 { return &v }

func completeMale() MeasurementSet {
	return MeasurementSet{
		ShoulderWidth: f(18),
		Chest:         f(40),
		Waist:         f(34),
		Hip:           f(40),
		Neck:          f(15.5),
		ArmLength:     f(25),
		Gender:        GenderMale,
	}
}

func TestSchemaHasSixteenUniqueFields(t *testing.T) {
	assert.Len(t, MeasurementSchema, 16)
	seen := map[string]bool{}
	for _, field := range MeasurementSchema {
		assert.False(t, seen[field.Key], field.Key)
		seen[field.Key] = true
		assert.Less(t, field.Min, field.Max, field.Key)
	}
}

func TestValidateComplete(t *testing.T) {
	assert.NoError(t, completeMale().Validate())
	assert.True(t, completeMale().IsComplete())
}

func TestValidateWaistBelowRange(t *testing.T) {
	m := completeMale()
	m.Waist = f(15)

	err := m.Validate()
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, apperror.UserMessage(err), "20–60")

	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "waist", fieldErrs[0].Field)
}

func TestValidateRejectsNonPositive(t *testing.T) {
	m := completeMale()
	m.Bicep = f(0)
	assert.Error(t, m.Validate())
	assert.Error(t, m.ValidatePartial())
}

func TestShoulderToNippleRequiredOnlyForFemale(t *testing.T) {
	m := completeMale()
	assert.NoError(t, m.Validate())

	m.Gender = GenderFemale
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shoulder_to_nipple")

	m.ShoulderToNipple = f(10)
	assert.NoError(t, m.Validate())
}

func TestValidatePartialIgnoresMissing(t *testing.T) {
	m := MeasurementSet{Waist: f(30)}
	assert.NoError(t, m.ValidatePartial())
	assert.Error(t, m.Validate())

	m.Hip = f(99)
	assert.Error(t, m.ValidatePartial())
}

func TestParseMeasurementsRejectsUnknownKeys(t *testing.T) {
	_, err := ParseMeasurements([]byte(`{"waist": 30, "tail_length": 12}`))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "tail_length")

	_, err = ParseMeasurements([]byte(`{"waist": "thirty"}`))
	assert.Error(t, err)

	m, err := ParseMeasurements([]byte(`{"waist": 30, "gender": "female", "notes": "свободная посадка"}`))
	require.NoError(t, err)
	assert.Equal(t, 30.0, *m.Waist)
	assert.Equal(t, GenderFemale, m.Gender)
}

func TestNestedDecodeAlsoRejectsUnknownKeys(t *testing.T) {
	var payload struct {
		Measurements MeasurementSet `json:"measurements"`
	}
	err := json.Unmarshal([]byte(`{"measurements": {"waistline": 30}}`), &payload)
	assert.Error(t, err)
}

func TestValidateRejectsNaN(t *testing.T) {
	m := completeMale()
	m.Waist = f(math.NaN())

	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waist")

	err = MeasurementSet{Chest: f(math.NaN())}.ValidatePartial()
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.False(t, m.IsComplete())
}

func TestEachFollowsSchemaOrder(t *testing.T) {
	m := MeasurementSet{Height: f(70), ShoulderWidth: f(18)}
	var keys []string
	m.Each(func(field MeasurementField, _ float64) { keys = append(keys, field.Key) })
	assert.Equal(t, []string{"shoulder_width", "height"}, keys)
	assert.True(t, MeasurementSet{}.IsEmpty())
	assert.False(t, m.IsEmpty())
}
