// Package products uploads Shopify-export style product rows through
// productSet and publishes the results.
package products

import (
	"regexp"
	"strings"

	"hydrogen-admin/internal/csvio"
	"hydrogen-admin/internal/services/shopify"
)

// Column names of the Shopify product export format.
const (
	ColHandle          = "Handle"
	ColTitle           = "Title"
	ColBody            = "Body (HTML)"
	ColVendor          = "Vendor"
	ColType            = "Type"
	ColTags            = "Tags"
	ColStatus          = "Status"
	ColSEOTitle        = "SEO Title"
	ColSEODescription  = "SEO Description"
	ColOption1Name     = "Option1 Name"
	ColOption1Value    = "Option1 Value"
	ColVariantSKU      = "Variant SKU"
	ColVariantPrice    = "Variant Price"
	ColInventoryPolicy = "Variant Inventory Policy"
	ColTaxable         = "Variant Taxable"
	ColImageSrc        = "Image Src"
	ColImageAlt        = "Image Alt Text"
)

const (
	DefaultVendor          = "Default Vendor"
	DefaultProductType     = "General"
	DefaultStatus          = "ACTIVE"
	DefaultPrice           = "10.00"
	DefaultInventoryPolicy = "CONTINUE"
	DefaultQuantity        = 100
	DefaultOptionName      = "Title"
	DefaultOptionValue     = "Default Title"
)

var whitespace = regexp.MustCompile(`\s+`)

// Group is every row sharing one handle. The first row carries the product
// fields; all rows contribute images.
type Group struct {
	Handle string
	Rows   []csvio.Row
	Media  []shopify.FileSetInput
}

func (g Group) First() csvio.Row {
	return g.Rows[0]
}

// GroupByHandle groups rows by handle in first-seen order, regardless of
// adjacency. Rows without a handle stay on their own.
func GroupByHandle(rows []csvio.Row) []Group {
	var groups []Group
	index := map[string]int{}

	for _, row := range rows {
		handle := strings.TrimSpace(row.String(ColHandle))
		pos, seen := index[handle]
		if !seen || handle == "" {
			groups = append(groups, Group{Handle: handle})
			pos = len(groups) - 1
			if handle != "" {
				index[handle] = pos
			}
		}

		g := &groups[pos]
		g.Rows = append(g.Rows, row)
		if src := row.String(ColImageSrc); src != "" && !hasMedia(g.Media, src) {
			alt := row.String(ColImageAlt)
			if alt == "" {
				alt = "Media for " + handle
			}
			g.Media = append(g.Media, shopify.FileSetInput{OriginalSource: src, Alt: alt, ContentType: "IMAGE"})
		}
	}
	return groups
}

func hasMedia(media []shopify.FileSetInput, src string) bool {
	for _, m := range media {
		if m.OriginalSource == src {
			return true
		}
	}
	return false
}

// BuildInput maps a group to a productSet input. themeType is the name of
// the first selected publication.
func BuildInput(g Group, locationID, themeType string) shopify.ProductSetInput {
	row := g.First()

	optionName := row.String(ColOption1Name)
	optionValue := row.String(ColOption1Value)
	if optionName == "" || optionValue == "" {
		optionName, optionValue = DefaultOptionName, DefaultOptionValue
	}

	taxable := true
	if v, ok := row[ColTaxable].(bool); ok {
		taxable = v
	}

	input := shopify.ProductSetInput{
		Title:           row.String(ColTitle),
		Handle:          g.Handle,
		DescriptionHTML: row.String(ColBody),
		Vendor:          orDefault(row.String(ColVendor), DefaultVendor),
		ProductType:     orDefault(row.String(ColType), DefaultProductType),
		Status:          strings.ToUpper(orDefault(row.String(ColStatus), DefaultStatus)),
		Tags:            splitTags(row.String(ColTags)),
		ProductOptions: []shopify.OptionSetInput{{
			Name:   optionName,
			Values: []shopify.OptionValueInput{{Name: optionValue}},
		}},
		Variants: []shopify.ProductVariantSetInput{{
			Price:           orDefault(row.String(ColVariantPrice), DefaultPrice),
			SKU:             row.String(ColVariantSKU),
			InventoryPolicy: strings.ToUpper(orDefault(row.String(ColInventoryPolicy), DefaultInventoryPolicy)),
			Taxable:         taxable,
			OptionValues:    []shopify.VariantOptionValueInput{{OptionName: optionName, Name: optionValue}},
		}},
		Files: g.Media,
	}

	if locationID != "" {
		input.Variants[0].InventoryQuantities = []shopify.InventoryQuantityInput{{
			LocationID: locationID,
			Name:       "available",
			Quantity:   DefaultQuantity,
		}}
	}

	seoTitle, seoDescription := row.String(ColSEOTitle), row.String(ColSEODescription)
	if seoTitle != "" || seoDescription != "" {
		input.SEO = &shopify.SEOInput{Title: seoTitle, Description: seoDescription}
	}

	if themeType != "" {
		input.Metafields = []shopify.MetafieldInput{{
			Namespace: "custom",
			Key:       "theme_types",
			Type:      "single_line_text_field",
			Value:     whitespace.ReplaceAllString(strings.TrimSpace(themeType), "-"),
		}}
	}
	return input
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
