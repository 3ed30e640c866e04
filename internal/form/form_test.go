package form

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/api/internal/schema"
)

func TestMissingReportsAbsentRequiredField(t *testing.T) {
	fields := []schema.Field{{Name: "title", Label: "Title", Type: schema.TypeText, Required: true}}
	assert.Equal(t, []string{"Title"}, Missing(fields, map[string]any{}))
}

func TestMissingTreatsZeroValuesAsPresent(t *testing.T) {
	fields := []schema.Field{
		{Name: "enabled", Label: "Enabled", Type: schema.TypeBoolean, Required: true},
		{Name: "price", Label: "Price", Type: schema.TypeNumber, Required: true},
		{Name: "title", Label: "Title", Type: schema.TypeText, Required: true},
	}
	values := map[string]any{"enabled": false, "price": 0, "title": ""}
	assert.Empty(t, Missing(fields, values))
}

func TestMissingTreatsNilAsAbsent(t *testing.T) {
	fields := []schema.Field{
		{Name: "title", Label: "Title", Type: schema.TypeText, Required: true},
		{Name: "summary", Label: "Summary", Type: schema.TypeTextarea},
	}
	assert.Equal(t, []string{"Title"}, Missing(fields, map[string]any{"title": nil}))
}

func TestValidateKeepsSchemaOrder(t *testing.T) {
	pricing, ok := schema.Default().Get("pricing")
	require.True(t, ok)

	err := Validate(pricing.Fields, map[string]any{})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"Included in the base plan", "Base price (JPY)"}, verr.Missing)
	assert.Contains(t, verr.Error(), "Base price (JPY)")
}

func TestStateLifecycle(t *testing.T) {
	pricing, _ := schema.Default().Get("pricing")
	state := NewState(pricing.Fields, map[string]any{"id": "singleton", "basePrice": 40000})

	_, hasID := state.Get("id")
	assert.False(t, hasID)
	require.Error(t, state.Validate())

	state.AppendItem("baseRates")
	state.AppendItem("baseRates")
	state.SetItemField("baseRates", 0, "name", "Design")
	state.SetItemField("baseRates", 1, "name", "Coding")
	state.RemoveItem("baseRates", 0)
	require.NoError(t, state.Validate())

	values := state.Values()
	rates, ok := values["baseRates"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, rates, 1)
	assert.Equal(t, "Coding", rates[0]["name"])

	state.Set("basePrice", nil)
	assert.Error(t, state.Validate())
}

func TestStateAcceptsDecodedArrays(t *testing.T) {
	pricing, _ := schema.Default().Get("pricing")
	state := NewState(pricing.Fields, map[string]any{
		"options": []any{map[string]any{"name": "Logo"}},
	})
	state.SetItemField("options", 0, "price", 5000)

	opts := state.Values()["options"].([]map[string]any)
	assert.Equal(t, 5000, opts[0]["price"])
	assert.Equal(t, "Logo", opts[0]["name"])

	state.RemoveItem("options", 3)
	assert.Len(t, state.Values()["options"], 1)
}
