package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Scope string

const (
	ScopeCollections Scope = "collections"
	ScopeProducts    Scope = "products"
)

// StartPayload is the body of publish:collections and publish:products.
type StartPayload struct {
	StoreName    string           `json:"storeName"`
	StoreID      string           `json:"storeId"`
	Publications []PublicationRef `json:"publications,omitempty"`
}

var ErrPublicationID = errors.New("publication has no id")

// PublicationRef names a sales channel. The uploader sends
// publicationId/publicationName; id/name is read as well.
type PublicationRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (p *PublicationRef) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		PublicationID   string `json:"publicationId"`
		PublicationName string `json:"publicationName"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.ID = pick(raw.PublicationID, raw.ID)
	p.Name = pick(raw.PublicationName, raw.Name)
	return nil
}

// CheckPublications rejects a selection with an entry that has no id.
func CheckPublications(refs []PublicationRef) error {
	for i, ref := range refs {
		if strings.TrimSpace(ref.ID) == "" {
			return fmt.Errorf("%w: entry %d (%q)", ErrPublicationID, i, ref.Name)
		}
	}
	return nil
}

// Progress carries counters plus optional status text. Counter fields are
// pointers so absent values leave the previous ones untouched.
type Progress struct {
	Total      *int   `json:"total,omitempty"`
	Processed  *int   `json:"processed,omitempty"`
	Successful *int   `json:"successful,omitempty"`
	Failed     *int   `json:"failed,omitempty"`
	Scope      Scope  `json:"scope,omitempty"`
	Error      string `json:"error,omitempty"`
	Success    string `json:"success,omitempty"`
	Stage      string `json:"stage,omitempty"`
	Message    string `json:"message,omitempty"`
	Title      string `json:"title,omitempty"`
	Handle     string `json:"handle,omitempty"`
}

func (p Progress) IsReset() bool {
	return p.Processed != nil && *p.Processed == 0
}

type ItemPayload struct {
	Title   string `json:"title,omitempty"`
	Handle  string `json:"handle,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (p ItemPayload) reason() string {
	if p.Message != "" {
		return p.Message
	}
	return p.Error
}

type ErrorPayload struct {
	Message string `json:"message"`
	Scope   Scope  `json:"scope,omitempty"`
	Title   string `json:"title,omitempty"`
	Handle  string `json:"handle,omitempty"`
}

type CompletedPayload struct {
	Scope        Scope `json:"scope"`
	SuccessCount int   `json:"successCount"`
}

type CollectionsCompletedPayload struct {
	StoreName string `json:"storeName"`
	StoreID   string `json:"storeId,omitempty"`
	Success   bool   `json:"success"`
}

type DonePayload struct {
	Created int `json:"created"`
	Total   int `json:"total"`
}

type MessagePayload struct {
	Message string `json:"message"`
}

// Record is a successful or failed item. Data keeps the original row columns
// when the backend sends them.
type Record struct {
	Title  string                 `json:"title"`
	Handle string                 `json:"handle"`
	Error  string                 `json:"error,omitempty"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

func (r Record) key() string {
	return r.Title + "\x00" + r.Handle
}

// Flat merges the original row with title, handle and error for export.
func (r Record) Flat() map[string]interface{} {
	out := make(map[string]interface{}, len(r.Data)+3)
	for k, v := range r.Data {
		out[k] = v
	}
	if _, ok := out["title"]; !ok && r.Title != "" {
		out["title"] = r.Title
	}
	if _, ok := out["handle"]; !ok && r.Handle != "" {
		out["handle"] = r.Handle
	}
	out["error"] = r.Error
	return out
}

// recordsFromPayload reads a failedRecords list: either a bare array or
// {records: [...]}, each item a flat row with an error column.
func recordsFromPayload(raw json.RawMessage) ([]Record, error) {
	var rows []map[string]interface{}
	if err := json.Unmarshal(raw, &rows); err != nil {
		var wrapped struct {
			Records []map[string]interface{} `json:"records"`
		}
		if err2 := json.Unmarshal(raw, &wrapped); err2 != nil {
			return nil, fmt.Errorf("failed to decode failed records: %w", err)
		}
		rows = wrapped.Records
	}

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := Record{Data: map[string]interface{}{}}
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := row[k]
			switch k {
			case "error", "message":
				if s, ok := v.(string); ok && rec.Error == "" {
					rec.Error = s
				}
				continue
			case "title", "Title":
				if s, ok := v.(string); ok && rec.Title == "" {
					rec.Title = s
				}
			case "handle", "Handle":
				if s, ok := v.(string); ok && rec.Handle == "" {
					rec.Handle = s
				}
			}
			rec.Data[k] = v
		}
		out = append(out, rec)
	}
	return out, nil
}
