package collections

import (
	"testing"

	"hydrogen-admin/internal/csvio"
	"hydrogen-admin/internal/services/shopify"

	"github.com/stretchr/testify/assert"
)

func TestBuildInputDefaults(t *testing.T) {
	input := BuildInput(Row{Title: "Everything", Handle: "everything"}, []string{"Online Store", "Shop"})

	assert.Equal(t, "Everything", input.Title)
	assert.Equal(t, DefaultDescription, input.DescriptionHTML)
	assert.Equal(t, "BEST_SELLING", input.SortOrder)
	assert.False(t, input.RuleSet.AppliedDisjunctively)
	assert.Equal(t, []shopify.Rule{{Column: "TITLE", Relation: "CONTAINS", Condition: "PRODUCT"}}, input.RuleSet.Rules)
	assert.Equal(t, []shopify.MetafieldInput{{
		Namespace: "custom", Key: "theme_types", Type: "single_line_text_field", Value: "Online Store-Shop",
	}}, input.Metafields)
}

func TestBuildInputFromCSVRow(t *testing.T) {
	row := RowFromCSV(csvio.Row{
		"title": "Cheap", "description": "Under 20", "handle": "cheap", "match_any": true,
		"type": "variant_price", "operator": "less than", "value": float64(20), "image_src": "https://img/x.jpg",
	})

	input := BuildInput(row, nil)
	assert.True(t, input.RuleSet.AppliedDisjunctively)
	assert.Equal(t, shopify.Rule{Column: "VARIANT_PRICE", Relation: "LESS_THAN", Condition: "20"}, input.RuleSet.Rules[0])
	assert.Equal(t, "Under 20", input.DescriptionHTML)
	assert.Equal(t, "https://img/x.jpg", input.ImageSrc)
	assert.Empty(t, input.Metafields)
}

func TestMatchAnyRequiresBooleanTrue(t *testing.T) {
	assert.False(t, RowFromCSV(csvio.Row{"match_any": "yes"}).MatchAny)
	assert.False(t, RowFromCSV(csvio.Row{"match_any": nil}).MatchAny)
	assert.True(t, RowFromCSV(csvio.Row{"match_any": true}).MatchAny)
}
