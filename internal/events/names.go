// Package events defines the real-time publish/provisioning vocabulary and
// folds incoming events into per-session state.
package events

import (
	"errors"
	"fmt"
)

// ErrUnknownEvent is returned for names outside the vocabulary.
var ErrUnknownEvent = errors.New("unknown event")

type Name string

// Commands emitted by the admin.
const (
	ShopifyCreate      Name = "shopify:create"
	ShopifyUpdate      Name = "shopify:update"
	PublishCollections Name = "publish:collections"
	PublishProducts    Name = "publish:products"
)

// Store provisioning events.
const (
	ShopifyAuthCode Name = "shopify:authcode"
	ShopifyAuthURL  Name = "shopify:authurl"
	ShopifyStatus   Name = "shopify:status"
	ShopifySuccess  Name = "shopify:success"
	ShopifyFailure  Name = "shopify:failure"
	ShopifyStoreURL Name = "shopify:storeurl"
)

// Publish run events.
const (
	PublishStatus           Name = "publish:status"
	PublishProgress         Name = "publish:progress"
	PublishError            Name = "publish:error"
	PublishCompleted        Name = "publish:completed"
	PublishSuccess          Name = "publish:success"
	PublishFailedRecords    Name = "publish:failedRecords"
	PublishNotFound         Name = "publish:not_found"
	PublishCategoryLanguage Name = "publish:category_language"

	CollectionsProgress       Name = "publish:collections:progress"
	CollectionsError          Name = "publish:collections:error"
	CollectionsDone           Name = "publish:collections:done"
	CollectionsPublished      Name = "publish:collections:published"
	CollectionsPublishError   Name = "publish:collections:publish_error"
	CollectionsPublishSummary Name = "publish:collections:publish_summary"
	CollectionsSuccess        Name = "publish:collections:success"
	CollectionsCompleted      Name = "publish:collections:completed"

	ProductsProgress       Name = "publish:products:progress"
	ProductsWarn           Name = "publish:products:warn"
	ProductsError          Name = "publish:products:error"
	ProductsDone           Name = "publish:products:done"
	ProductsPublished      Name = "publish:products:published"
	ProductsPublishError   Name = "publish:products:publish_error"
	ProductsPublishSummary Name = "publish:products:publish_summary"
	ProductsSuccess        Name = "publish:products:success"
	ProductsFailedRecords  Name = "publish:products:failedRecords"
)

// Connection lifecycle, raised locally by the relay.
const (
	Connect      Name = "connect"
	ConnectError Name = "connect_error"
	Disconnect   Name = "disconnect"
)

var commands = map[Name]bool{
	ShopifyCreate: true, ShopifyUpdate: true, PublishCollections: true, PublishProducts: true,
}

var vocabulary = map[Name]bool{
	ShopifyAuthCode: true, ShopifyAuthURL: true, ShopifyStatus: true, ShopifySuccess: true,
	ShopifyFailure: true, ShopifyStoreURL: true,

	PublishStatus: true, PublishProgress: true, PublishError: true, PublishCompleted: true,
	PublishSuccess: true, PublishFailedRecords: true, PublishNotFound: true, PublishCategoryLanguage: true,

	CollectionsProgress: true, CollectionsError: true, CollectionsDone: true, CollectionsPublished: true,
	CollectionsPublishError: true, CollectionsPublishSummary: true, CollectionsSuccess: true,
	CollectionsCompleted: true,

	ProductsProgress: true, ProductsWarn: true, ProductsError: true, ProductsDone: true,
	ProductsPublished: true, ProductsPublishError: true, ProductsPublishSummary: true,
	ProductsSuccess: true, ProductsFailedRecords: true,

	Connect: true, ConnectError: true, Disconnect: true,
}

// ParseName validates a wire name against the closed vocabulary.
func ParseName(s string) (Name, error) {
	n := Name(s)
	if vocabulary[n] || commands[n] {
		return n, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
}

// IsCommand reports whether n is emitted by the admin rather than received.
func (n Name) IsCommand() bool {
	return commands[n]
}
