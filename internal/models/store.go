package models

import (
	"time"
)

// Store is a provisioned storefront as reported by the store registry.
type Store struct {
	StoreID   string    `json:"store_id" gorm:"primaryKey"`
	StoreName string    `json:"storeName" gorm:"not null"`
	StoreURL  string    `json:"storeUrl"`
	Status    string    `json:"status"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ThemeCategory values accepted by the theme backend.
const (
	ThemeCategoryDIY      = "diy"
	ThemeCategoryPets     = "pets"
	ThemeCategoryDeco     = "deco"
	ThemeCategoryBaby     = "baby"
	ThemeCategoryAutoMoto = "automoto"
	ThemeCategoryGeneral  = "general"
)

// StoreConfig is the configuration forwarded with shopify:create and
// shopify:update commands.
type StoreConfig struct {
	StoreID        string `json:"storeId,omitempty"`
	StoreName      string `json:"storeName" binding:"required"`
	ThemeCategory  string `json:"themeCategory" binding:"required,oneof=diy pets deco baby automoto general"`
	AffiliateID    string `json:"affiliateId" binding:"required"`
	StoreTitle     string `json:"storeTitle"`
	DomainName     string `json:"domainName"`
	ShopifyURL     string `json:"shopifyUrl" binding:"omitempty,url"`
	Language       string `json:"language" binding:"omitempty,oneof=en fr"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	CompanyName    string `json:"companyName"`
	CompanyAddress string `json:"companyAddress"`
	Email          string `json:"email" binding:"omitempty,email"`
	Phone          string `json:"phone"`
}
