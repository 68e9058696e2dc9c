package event

import "time"

// Payload is the tagged union over the six event kinds. Each concrete payload
// reports its own Type, and the marker method keeps the set closed to this
// package.
type Payload interface {
	Type() Type
	payload()
}

// Shop describes the storefront an event was produced on.
type Shop struct {
	ShopID           string `json:"shop_id"`
	Currency         string `json:"currency,omitempty"`
	AcceptedLanguage string `json:"accepted_language,omitempty"`
	SubchannelID     string `json:"subchannel_id,omitempty"`
}

// Product describes a single product line in a view or cart event.
type Product struct {
	ProductID    string  `json:"product_id"`
	Title        string  `json:"title,omitempty"`
	Vendor       string  `json:"vendor,omitempty"`
	VariantID    string  `json:"variant_id,omitempty"`
	VariantTitle string  `json:"variant_title,omitempty"`
	SKU          string  `json:"sku,omitempty"`
	Price        string  `json:"price,omitempty"`
	Quantity     float64 `json:"quantity,omitempty"`
}

// Cart is a snapshot of cart state at the time an event was produced.
type Cart struct {
	ID            string         `json:"id"`
	TotalQuantity int            `json:"total_quantity"`
	Lines         []Product      `json:"lines,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at,omitempty"`
}

// PageView is the payload for page_viewed.
type PageView struct {
	URL      string `json:"url"`
	Path     string `json:"path,omitempty"`
	Search   string `json:"search,omitempty"`
	Title    string `json:"title,omitempty"`
	Referrer string `json:"referrer,omitempty"`
}

func (PageView) Type() Type { return PageViewed }
func (PageView) payload()   {}

// ProductView is the payload for product_viewed.
type ProductView struct {
	Products []Product `json:"products"`
}

func (ProductView) Type() Type { return ProductViewed }
func (ProductView) payload()   {}

// CollectionView is the payload for collection_viewed.
type CollectionView struct {
	CollectionID string `json:"collection_id"`
	Handle       string `json:"handle,omitempty"`
}

func (CollectionView) Type() Type { return CollectionViewed }
func (CollectionView) payload()   {}

// CartView is the payload for cart_viewed.
type CartView struct {
	Cart *Cart `json:"cart,omitempty"`
}

func (CartView) Type() Type { return CartViewed }
func (CartView) payload()   {}

// CartUpdate is the payload for cart_updated. PrevCart is the cart state
// immediately prior to the update, nil on the first update.
type CartUpdate struct {
	Cart     *Cart `json:"cart,omitempty"`
	PrevCart *Cart `json:"prev_cart,omitempty"`
}

func (CartUpdate) Type() Type { return CartUpdated }
func (CartUpdate) payload()   {}

// Custom is the payload for custom_event. Data is opaque to the bus.
type Custom struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data,omitempty"`
}

func (Custom) Type() Type { return CustomEvent }
func (Custom) payload()   {}
