package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

const stagedUploadsCreateMutation = `mutation stagedUploadsCreate($input: [StagedUploadInput!]!) {
  stagedUploadsCreate(input: $input) {
    stagedTargets { url resourceUrl parameters { name value } }
    userErrors { field message }
  }
}`

// uploadCollectionImage copies the image at src into Shopify's staged
// storage and returns the resource URL to reference from the collection.
func (c *Client) uploadCollectionImage(ctx context.Context, src string) (string, Result[StagedTarget]) {
	vars := map[string]interface{}{
		"input": []map[string]string{{
			"resource":   "IMAGE",
			"filename":   "collection-image.jpg",
			"mimeType":   "image/jpeg",
			"httpMethod": "POST",
		}},
	}
	raw, status, err := c.execute(ctx, stagedUploadsCreateMutation, vars)
	target := decodeResult(raw, status, err, func(data json.RawMessage) (StagedTarget, []UserError, error) {
		var payload stagedUploadsPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return StagedTarget{}, nil, err
		}
		if len(payload.StagedUploadsCreate.UserErrors) > 0 {
			return StagedTarget{}, payload.StagedUploadsCreate.UserErrors, nil
		}
		if len(payload.StagedUploadsCreate.StagedTargets) == 0 {
			return StagedTarget{}, []UserError{{Message: "no staged upload target returned"}}, nil
		}
		return payload.StagedUploadsCreate.StagedTargets[0], nil, nil
	})
	if !target.OK() {
		return "", target
	}

	if err := c.pushStagedFile(ctx, target.Data, src); err != nil {
		return "", transportResult[StagedTarget](0, fmt.Sprintf("failed to upload collection image: %v", err))
	}
	return target.Data.ResourceURL, target
}

func (c *Client) pushStagedFile(ctx context.Context, target StagedTarget, src string) error {
	image, err := c.fetch(ctx, src)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for _, p := range target.Parameters {
		if err := form.WriteField(p.Name, p.Value); err != nil {
			return err
		}
	}
	part, err := form.CreateFormFile("file", "collection-image.jpg")
	if err != nil {
		return err
	}
	if _, err := part.Write(image); err != nil {
		return err
	}
	if err := form.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, &body)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upload rejected: %d - %s", resp.StatusCode, string(detail))
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
