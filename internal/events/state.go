package events

import (
	"encoding/json"

	"hydrogen-admin/internal/models"
)

type Mode string

const (
	// ModeChained publishes collections, then products once collections succeed.
	ModeChained Mode = "chained"
	// ModeProducts publishes products from a stashed start payload.
	ModeProducts Mode = "products"
	// ModeStore forwards a store configuration with shopify:create, or
	// shopify:update when it names an existing store.
	ModeStore Mode = "store"
)

func (m Mode) Valid() bool {
	return m == ModeChained || m == ModeProducts || m == ModeStore
}

// Stream is the view of one scope.
type Stream struct {
	Status     models.ProcessingStatus `json:"processingStatus"`
	StatusText string                  `json:"statusText,omitempty"`
	Error      string                  `json:"error,omitempty"`
	Success    string                  `json:"success,omitempty"`
	Failed     []Record                `json:"failedRecords"`
	Successful []Record                `json:"successfulRecords"`
	Terminated bool                    `json:"terminated"`
	// Finished is set once the backend reports the scope complete.
	Finished   bool                    `json:"finished"`

	maxSeq   uint64
	resetSeq uint64
}

type ShopifyState struct {
	AuthCode  string   `json:"authCode,omitempty"`
	AuthURL   string   `json:"authUrl,omitempty"`
	Status    string   `json:"status,omitempty"`
	StoreURL  string   `json:"storeUrl,omitempty"`
	Succeeded bool     `json:"succeeded"`
	Failed    bool     `json:"failed"`
	Log       []string `json:"log,omitempty"`
}

// State is everything a session has folded so far.
type State struct {
	Mode      Mode   `json:"mode"`
	StoreName string `json:"storeName"`
	StoreID   string `json:"storeId"`
	Connected bool   `json:"connected"`

	Error   string `json:"error,omitempty"`
	Success string `json:"success,omitempty"`

	Collections Stream       `json:"collections"`
	Products    Stream       `json:"products"`
	Shopify     ShopifyState `json:"shopify"`

	CategoryLanguage json.RawMessage `json:"categoryLanguage,omitempty"`

	StartedCollections bool `json:"startedCollections"`
	StartedProducts    bool `json:"startedProducts"`
	StartedStore       bool `json:"startedStore"`

	start json.RawMessage
}

// NewState prepares a session. start is the stashed payload sent on connect
// in products and store mode.
func NewState(mode Mode, storeName, storeID string, start json.RawMessage) State {
	return State{
		Mode:        mode,
		StoreName:   storeName,
		StoreID:     storeID,
		Collections: Stream{Failed: []Record{}, Successful: []Record{}},
		Products:    Stream{Failed: []Record{}, Successful: []Record{}},
		start:       start,
	}
}

func (s *State) stream(scope Scope) *Stream {
	switch scope {
	case ScopeCollections:
		return &s.Collections
	case ScopeProducts:
		return &s.Products
	}
	return nil
}

// Done reports whether no further events are expected for the session.
func (s State) Done() bool {
	switch s.Mode {
	case ModeProducts:
		return s.Products.Terminated || s.Products.Finished
	case ModeStore:
		return s.Shopify.Succeeded || s.Shopify.Failed
	default:
		if s.Collections.Terminated {
			return true
		}
		return s.Products.Terminated || s.Products.Finished
	}
}
