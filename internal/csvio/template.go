package csvio

// Collection import columns in file order.
var CollectionColumns = []string{"title", "description", "handle", "match_any", "type", "operator", "value", "image_src"}

// Product import columns, a subset of Shopify's product export.
var ProductColumns = []string{
	"Handle", "Title", "Body (HTML)", "Vendor", "Type", "Tags", "Status",
	"SEO Title", "SEO Description", "Option1 Name", "Option1 Value",
	"Variant SKU", "Variant Price", "Variant Inventory Policy", "Variant Taxable",
	"Image Src", "Image Alt Text",
}

// CollectionTemplate returns the header with two sample rows.
func CollectionTemplate() *Table {
	return &Table{
		Header: CollectionColumns,
		Rows: []Row{
			{
				"title": "Summer Dresses", "description": "Light dresses for warm days", "handle": "summer-dresses",
				"match_any": false, "type": "TAG", "operator": "equals", "value": "summer", "image_src": nil,
			},
			{
				"title": "Budget Picks", "description": "Everything under 20", "handle": "budget-picks",
				"match_any": true, "type": "VARIANT_PRICE", "operator": "less than", "value": float64(20), "image_src": nil,
			},
		},
	}
}

// ProductTemplate returns the header with a product spanning two image rows.
func ProductTemplate() *Table {
	return &Table{
		Header: ProductColumns,
		Rows: []Row{
			{
				"Handle": "ceramic-mug", "Title": "Ceramic Mug", "Body (HTML)": "<p>Stoneware mug</p>",
				"Vendor": "Acme", "Type": "Kitchen", "Tags": "mug, ceramic", "Status": "active",
				"SEO Title": "Ceramic Mug", "SEO Description": "Handmade stoneware mug",
				"Option1 Name": "Color", "Option1 Value": "White", "Variant SKU": "MUG-WHT",
				"Variant Price": float64(14.5), "Variant Inventory Policy": "continue", "Variant Taxable": true,
				"Image Src": "https://cdn.example.com/mug-front.jpg", "Image Alt Text": "Mug front",
			},
			{
				"Handle": "ceramic-mug", "Image Src": "https://cdn.example.com/mug-side.jpg", "Image Alt Text": "Mug side",
			},
		},
	}
}
