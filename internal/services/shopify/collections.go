package shopify

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

const publicationsQuery = `query publications {
  publications(first: 20) {
    edges { node { id name } }
  }
}`

const collectionCreateMutation = `mutation collectionCreate($input: CollectionInput!) {
  collectionCreate(input: $input) {
    collection { id title handle }
    userErrors { field message }
  }
}`

const publishablePublishMutation = `mutation publishablePublish($id: ID!, $input: [PublicationInput!]!) {
  publishablePublish(id: $id, input: $input) {
    publishable { availablePublicationsCount { count } }
    userErrors { field message }
  }
}`

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9]+`)
)

// GetPublications lists the sales channels of the shop.
func (c *Client) GetPublications(ctx context.Context) Result[[]Publication] {
	raw, status, err := c.execute(ctx, publicationsQuery, nil)
	return decodeResult(raw, status, err, func(data json.RawMessage) ([]Publication, []UserError, error) {
		var payload struct {
			Publications PublicationsConnection `json:"publications"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, nil, err
		}
		return payload.Publications.Nodes(), nil, nil
	})
}

// CreateCollection creates a smart collection. When the input carries an
// image_src the image is first pushed through a staged upload.
func (c *Client) CreateCollection(ctx context.Context, input CollectionInput) Result[Collection] {
	prepared := prepareCollectionInput(input)

	if prepared.ImageSrc != "" {
		resourceURL, res := c.uploadCollectionImage(ctx, prepared.ImageSrc)
		if !res.OK() {
			return Result[Collection]{
				Kind:          res.Kind,
				UserErrors:    res.UserErrors,
				GraphQLErrors: res.GraphQLErrors,
				Status:        res.Status,
				Message:       res.Message,
				Raw:           res.Raw,
			}
		}
		prepared.Image = &CollectionImage{Src: resourceURL, AltText: prepared.Title}
		prepared.ImageSrc = ""
	}

	raw, status, err := c.execute(ctx, collectionCreateMutation, map[string]interface{}{"input": prepared})
	result := decodeResult(raw, status, err, func(data json.RawMessage) (Collection, []UserError, error) {
		var payload collectionCreatePayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return Collection{}, nil, err
		}
		if len(payload.CollectionCreate.UserErrors) > 0 {
			return Collection{}, payload.CollectionCreate.UserErrors, nil
		}
		if payload.CollectionCreate.Collection == nil {
			return Collection{}, []UserError{{Message: "collection was not returned"}}, nil
		}
		return *payload.CollectionCreate.Collection, nil, nil
	})

	if result.Kind == ResultVendorError {
		result.ProcessedInput = correctedInput(input, result.UserErrors)
	}
	return result
}

// PublishPublishable publishes a resource (collection or product) to one
// publication.
func (c *Client) PublishPublishable(ctx context.Context, id, publicationID string) Result[struct{}] {
	vars := map[string]interface{}{
		"id":    id,
		"input": []map[string]string{{"publicationId": publicationID}},
	}
	raw, status, err := c.execute(ctx, publishablePublishMutation, vars)
	return decodeResult(raw, status, err, func(data json.RawMessage) (struct{}, []UserError, error) {
		var payload publishablePublishPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return struct{}{}, nil, err
		}
		return struct{}{}, payload.PublishablePublish.UserErrors, nil
	})
}

func prepareCollectionInput(input CollectionInput) CollectionInput {
	out := input
	if len(input.Metafields) > 0 {
		out.Metafields = make([]MetafieldInput, len(input.Metafields))
		for i, mf := range input.Metafields {
			mf.Value = whitespaceRun.ReplaceAllString(strings.TrimSpace(mf.Value), "-")
			out.Metafields[i] = mf
		}
	}
	return out
}

// correctedInput offers a slugified handle when the vendor rejected the
// handle. It returns nil when no correction applies.
func correctedInput(input CollectionInput, userErrors []UserError) *CollectionInput {
	for _, ue := range userErrors {
		if !touchesField(ue, "handle") {
			continue
		}
		slug := Slugify(input.Handle)
		if slug == "" || slug == input.Handle {
			return nil
		}
		fixed := input
		fixed.Handle = slug
		return &fixed
	}
	return nil
}

func touchesField(ue UserError, field string) bool {
	for _, f := range ue.Field {
		if f == field {
			return true
		}
	}
	return false
}

// Slugify lower-cases s and collapses every run of non-alphanumerics to "-".
func Slugify(s string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
