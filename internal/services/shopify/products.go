package shopify

import (
	"context"
	"encoding/json"
)

const locationsQuery = `query locations {
  locations(first: 5) {
    edges { node { id name } }
  }
}`

const productSetMutation = `mutation productSet($input: ProductSetInput!, $synchronous: Boolean!) {
  productSet(synchronous: $synchronous, input: $input) {
    product {
      id
      title
      handle
      variants(first: 1) { edges { node { id inventoryItem { id } } } }
    }
    userErrors { field message code }
  }
}`

const inventoryItemUpdateMutation = `mutation inventoryItemUpdate($id: ID!, $input: InventoryItemInput!) {
  inventoryItemUpdate(id: $id, input: $input) {
    inventoryItem { id tracked }
    userErrors { field message }
  }
}`

// FirstLocationID returns the id of the first stock location.
func (c *Client) FirstLocationID(ctx context.Context) Result[string] {
	raw, status, err := c.execute(ctx, locationsQuery, nil)
	return decodeResult(raw, status, err, func(data json.RawMessage) (string, []UserError, error) {
		var payload locationsPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return "", nil, err
		}
		if len(payload.Locations.Edges) == 0 {
			return "", []UserError{{Message: "No locations found in the store"}}, nil
		}
		return payload.Locations.Edges[0].Node.ID, nil, nil
	})
}

// ProductSet creates or updates a product synchronously.
func (c *Client) ProductSet(ctx context.Context, input ProductSetInput) Result[Product] {
	vars := map[string]interface{}{
		"input":       input,
		"synchronous": true,
	}
	raw, status, err := c.execute(ctx, productSetMutation, vars)
	return decodeResult(raw, status, err, func(data json.RawMessage) (Product, []UserError, error) {
		var payload productSetPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return Product{}, nil, err
		}
		if len(payload.ProductSet.UserErrors) > 0 {
			return Product{}, payload.ProductSet.UserErrors, nil
		}
		if payload.ProductSet.Product == nil {
			return Product{}, []UserError{{Message: "product was not returned"}}, nil
		}
		return *payload.ProductSet.Product, nil, nil
	})
}

// TrackInventoryItem enables inventory tracking on an inventory item.
func (c *Client) TrackInventoryItem(ctx context.Context, inventoryItemID string) Result[struct{}] {
	vars := map[string]interface{}{
		"id":    inventoryItemID,
		"input": map[string]bool{"tracked": true},
	}
	raw, status, err := c.execute(ctx, inventoryItemUpdateMutation, vars)
	return decodeResult(raw, status, err, func(data json.RawMessage) (struct{}, []UserError, error) {
		var payload inventoryItemUpdatePayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return struct{}{}, nil, err
		}
		return struct{}{}, payload.InventoryItemUpdate.UserErrors, nil
	})
}
