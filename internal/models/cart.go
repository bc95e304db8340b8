package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one product in a cart with the price snapshot taken when it was first added.
// A cart holds at most one line per ProductID; size and color do not distinguish lines.
type CartLine struct {
	ProductID       string    `bson:"productId" json:"productId"`
	ProductName     string    `bson:"productName" json:"productName"`
	ProductPrice    float64   `bson:"productPrice" json:"productPrice"`
	ProductImageURL string    `bson:"productImageUrl,omitempty" json:"productImageUrl,omitempty"`
	Quantity        int       `bson:"quantity" json:"quantity"`
	SelectedSize    string    `bson:"selectedSize,omitempty" json:"selectedSize,omitempty"`
	SelectedColor   string    `bson:"selectedColor,omitempty" json:"selectedColor,omitempty"`
	AddedAt         time.Time `bson:"addedAt" json:"addedAt"`
}

// Cart is the per-user cart document. TotalItems and TotalPrice are derived from Items and
// are recomputed by every mutation; nothing sets them independently.
type Cart struct {
	ID          string     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID      string     `bson:"userId" json:"userId"`
	Items       []CartLine `bson:"items" json:"items"`
	TotalItems  int        `bson:"totalItems" json:"totalItems"`
	TotalPrice  float64    `bson:"totalPrice" json:"totalPrice"`
	LastUpdated time.Time  `bson:"lastUpdated" json:"lastUpdated"`
}

// NewCart returns the zero-state cart for a user. It is not persisted.
func NewCart(userID string) *Cart {
	return &Cart{UserID: userID, Items: []CartLine{}}
}

// Recalculate recomputes the cached aggregates from Items.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	items := 0
	for _, line := range c.Items {
		items += line.Quantity
		total = total.Add(decimal.NewFromFloat(line.ProductPrice).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	c.TotalItems = items
	c.TotalPrice = total.InexactFloat64()
}

func (c *Cart) indexOf(productID string) int {
	for i, line := range c.Items {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

// Line returns the line for productID, if any.
func (c *Cart) Line(productID string) (CartLine, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i], true
	}
	return CartLine{}, false
}

// MergeLine increments the quantity of an existing line for line.ProductID, leaving its
// snapshot, size and color untouched, or appends line when the product is new.
func (c *Cart) MergeLine(line CartLine, now time.Time) {
	if i := c.indexOf(line.ProductID); i >= 0 {
		c.Items[i].Quantity += line.Quantity
	} else {
		if line.AddedAt.IsZero() {
			line.AddedAt = now
		}
		c.Items = append(c.Items, line)
	}
	c.touch(now)
}

// SetQuantity sets a line's quantity verbatim; quantity <= 0 removes the line.
// A missing line leaves the items unchanged.
func (c *Cart) SetQuantity(productID string, quantity int, now time.Time) {
	if quantity <= 0 {
		c.RemoveLine(productID, now)
		return
	}
	if i := c.indexOf(productID); i >= 0 {
		c.Items[i].Quantity = quantity
	}
	c.touch(now)
}

// RemoveLine deletes the line for productID if present.
func (c *Cart) RemoveLine(productID string, now time.Time) {
	if i := c.indexOf(productID); i >= 0 {
		c.Items = append(c.Items[:i:i], c.Items[i+1:]...)
	}
	c.touch(now)
}

// Clear empties the cart but keeps the document.
func (c *Cart) Clear(now time.Time) {
	c.Items = []CartLine{}
	c.touch(now)
}

func (c *Cart) touch(now time.Time) {
	c.Recalculate()
	c.LastUpdated = now
}

// Clone returns a deep copy safe to hand out of a store.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = append([]CartLine(nil), c.Items...)
	if cp.Items == nil {
		cp.Items = []CartLine{}
	}
	return &cp
}
