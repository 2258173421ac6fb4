package shopify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GraphQL envelope

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// GraphQLError is one entry of the top-level "errors" array.
type GraphQLError struct {
	Message    string           `json:"message"`
	Path       []interface{}    `json:"path,omitempty"`
	Extensions *ErrorExtensions `json:"extensions,omitempty"`
}

type ErrorExtensions struct {
	Code     string    `json:"code,omitempty"`
	Problems []Problem `json:"problems,omitempty"`
}

// Problem details an input coercion failure.
type Problem struct {
	Path        []interface{} `json:"path"`
	Explanation string        `json:"explanation"`
}

func (p Problem) String() string {
	parts := make([]string, len(p.Path))
	for i, segment := range p.Path {
		parts[i] = fmt.Sprint(segment)
	}
	return strings.Join(parts, ".") + ": " + p.Explanation
}

// UserError is a business-rule rejection returned inside a mutation payload.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

func (e UserError) String() string {
	if len(e.Field) == 0 {
		return e.Message
	}
	return strings.Join(e.Field, ".") + ": " + e.Message
}

// Publications

type Publication struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PublicationsConnection struct {
	Edges []struct {
		Node Publication `json:"node"`
	} `json:"edges"`
}

// Nodes flattens the connection in vendor order.
func (c PublicationsConnection) Nodes() []Publication {
	out := make([]Publication, 0, len(c.Edges))
	for _, edge := range c.Edges {
		out = append(out, edge.Node)
	}
	return out
}

// Collections

type CollectionInput struct {
	Title           string           `json:"title"`
	Handle          string           `json:"handle,omitempty"`
	DescriptionHTML string           `json:"descriptionHtml,omitempty"`
	SortOrder       string           `json:"sortOrder,omitempty"`
	RuleSet         *RuleSet         `json:"ruleSet,omitempty"`
	Image           *CollectionImage `json:"image,omitempty"`
	ImageSrc        string           `json:"image_src,omitempty"`
	Metafields      []MetafieldInput `json:"metafields,omitempty"`
}

type RuleSet struct {
	AppliedDisjunctively bool   `json:"appliedDisjunctively"`
	Rules                []Rule `json:"rules"`
}

type Rule struct {
	Column    string `json:"column"`
	Relation  string `json:"relation"`
	Condition string `json:"condition"`
}

type CollectionImage struct {
	Src     string `json:"src"`
	AltText string `json:"altText,omitempty"`
}

type MetafieldInput struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

type Collection struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
}

type collectionCreatePayload struct {
	CollectionCreate struct {
		Collection *Collection `json:"collection"`
		UserErrors []UserError `json:"userErrors"`
	} `json:"collectionCreate"`
}

type publishablePublishPayload struct {
	PublishablePublish struct {
		Publishable json.RawMessage `json:"publishable"`
		UserErrors  []UserError     `json:"userErrors"`
	} `json:"publishablePublish"`
}

type stagedUploadsPayload struct {
	StagedUploadsCreate struct {
		StagedTargets []StagedTarget `json:"stagedTargets"`
		UserErrors    []UserError    `json:"userErrors"`
	} `json:"stagedUploadsCreate"`
}

// StagedTarget is an upload destination handed out by stagedUploadsCreate.
type StagedTarget struct {
	URL         string `json:"url"`
	ResourceURL string `json:"resourceUrl"`
	Parameters  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"parameters"`
}

// Products

type ProductSetInput struct {
	Title           string                   `json:"title"`
	Handle          string                   `json:"handle,omitempty"`
	DescriptionHTML string                   `json:"descriptionHtml,omitempty"`
	Vendor          string                   `json:"vendor,omitempty"`
	ProductType     string                   `json:"productType,omitempty"`
	Status          string                   `json:"status,omitempty"`
	Tags            []string                 `json:"tags,omitempty"`
	SEO             *SEOInput                `json:"seo,omitempty"`
	ProductOptions  []OptionSetInput         `json:"productOptions,omitempty"`
	Metafields      []MetafieldInput         `json:"metafields,omitempty"`
	Variants        []ProductVariantSetInput `json:"variants,omitempty"`
	Files           []FileSetInput           `json:"files,omitempty"`
}

type SEOInput struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type OptionSetInput struct {
	Name   string             `json:"name"`
	Values []OptionValueInput `json:"values"`
}

type OptionValueInput struct {
	Name string `json:"name"`
}

type ProductVariantSetInput struct {
	Price               string                    `json:"price"`
	SKU                 string                    `json:"sku,omitempty"`
	InventoryPolicy     string                    `json:"inventoryPolicy"`
	Taxable             bool                      `json:"taxable"`
	OptionValues        []VariantOptionValueInput `json:"optionValues,omitempty"`
	InventoryQuantities []InventoryQuantityInput  `json:"inventoryQuantities,omitempty"`
}

type VariantOptionValueInput struct {
	OptionName string `json:"optionName"`
	Name       string `json:"name"`
}

type InventoryQuantityInput struct {
	LocationID string `json:"locationId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
}

type FileSetInput struct {
	OriginalSource string `json:"originalSource"`
	Alt            string `json:"alt,omitempty"`
	ContentType    string `json:"contentType"`
}

// Product is the subset of the productSet result the uploader needs.
type Product struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Handle   string `json:"handle"`
	Variants struct {
		Edges []struct {
			Node struct {
				ID            string `json:"id"`
				InventoryItem struct {
					ID string `json:"id"`
				} `json:"inventoryItem"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

// FirstInventoryItemID returns the inventory item of the first variant, if any.
func (p Product) FirstInventoryItemID() string {
	if len(p.Variants.Edges) == 0 {
		return ""
	}
	return p.Variants.Edges[0].Node.InventoryItem.ID
}

type productSetPayload struct {
	ProductSet struct {
		Product    *Product    `json:"product"`
		UserErrors []UserError `json:"userErrors"`
	} `json:"productSet"`
}

type inventoryItemUpdatePayload struct {
	InventoryItemUpdate struct {
		InventoryItem *struct {
			ID      string `json:"id"`
			Tracked bool   `json:"tracked"`
		} `json:"inventoryItem"`
		UserErrors []UserError `json:"userErrors"`
	} `json:"inventoryItemUpdate"`
}

type locationsPayload struct {
	Locations struct {
		Edges []struct {
			Node struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"locations"`
}
