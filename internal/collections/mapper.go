// Package collections turns collection CSV rows into smart collections and
// publishes them to the selected sales channels.
package collections

import (
	"strings"

	"hydrogen-admin/internal/csvio"
	"hydrogen-admin/internal/services/shopify"
)

const (
	DefaultDescription = "Collection created from CSV import"
	DefaultColumn      = "TITLE"
	DefaultOperator    = "CONTAINS"
	DefaultCondition   = "PRODUCT"
	SortBestSelling    = "BEST_SELLING"

	ThemeTypesNamespace = "custom"
	ThemeTypesKey       = "theme_types"
	ThemeTypesType      = "single_line_text_field"
)

// Import file columns.
const (
	ColTitle       = "title"
	ColDescription = "description"
	ColHandle      = "handle"
	ColMatchAny    = "match_any"
	ColType        = "type"
	ColOperator    = "operator"
	ColValue       = "value"
	ColImageSrc    = "image_src"
)

// Row is one line of a collection import file.
type Row struct {
	Title       string
	Description string
	Handle      string
	MatchAny    bool
	Type        string
	Operator    string
	Value       string
	ImageSrc    string
}

// RowFromCSV reads the import columns from a parsed row.
func RowFromCSV(r csvio.Row) Row {
	return Row{
		Title:       r.String(ColTitle),
		Description: r.String(ColDescription),
		Handle:      r.String(ColHandle),
		MatchAny:    r.Bool(ColMatchAny),
		Type:        r.String(ColType),
		Operator:    r.String(ColOperator),
		Value:       r.String(ColValue),
		ImageSrc:    r.String(ColImageSrc),
	}
}

// BuildInput maps a row and the selected publication names to a collection
// input. It has no side effects.
func BuildInput(row Row, publicationNames []string) shopify.CollectionInput {
	column := DefaultColumn
	if row.Type != "" {
		column = strings.ToUpper(row.Type)
	}
	operator := row.Operator
	if operator == "" {
		operator = DefaultOperator
	}
	condition := row.Value
	if condition == "" {
		condition = DefaultCondition
	}
	description := row.Description
	if description == "" {
		description = DefaultDescription
	}

	input := shopify.CollectionInput{
		Title:           row.Title,
		Handle:          row.Handle,
		DescriptionHTML: description,
		SortOrder:       SortBestSelling,
		RuleSet: &shopify.RuleSet{
			AppliedDisjunctively: row.MatchAny,
			Rules: []shopify.Rule{{
				Column:    column,
				Relation:  NormalizeRelation(operator),
				Condition: condition,
			}},
		},
		ImageSrc: row.ImageSrc,
	}

	if len(publicationNames) > 0 {
		input.Metafields = []shopify.MetafieldInput{{
			Namespace: ThemeTypesNamespace,
			Key:       ThemeTypesKey,
			Type:      ThemeTypesType,
			Value:     strings.Join(publicationNames, "-"),
		}}
	}
	return input
}
