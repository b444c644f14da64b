package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotFound    = errors.New("item not found in cart")
)

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	SessionID string     `bson:"session_id" json:"session_id"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

type CartItem struct {
	ProductID int64     `bson:"product_id" json:"product_id"`
	Title     string    `bson:"title" json:"title"`
	Price     float64   `bson:"price" json:"price"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	ImageURL  string    `bson:"image_url" json:"image_url"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// Add merges a product into the cart: an item with the same product id gets
// its quantity incremented by one, otherwise a new item with quantity 1 is
// appended. Display order is insertion order.
func (c *Cart) Add(p Product) {
	for i := range c.Items {
		if c.Items[i].ProductID == p.ID {
			c.Items[i].Quantity++
			return
		}
	}

	c.Items = append(c.Items, CartItem{
		ProductID: p.ID,
		Title:     p.Title,
		Price:     p.Price,
		Quantity:  1,
		ImageURL:  p.ImageURL,
		AddedAt:   time.Now(),
	})
}

// Remove deletes the item with the given product id. Removing an absent item
// is a no-op, not an error.
func (c *Cart) Remove(productID int64) {
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// SetQuantity replaces the quantity of an existing item. Quantities below 1
// are rejected and leave the cart unchanged; reaching zero requires Remove.
func (c *Cart) SetQuantity(productID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return ErrItemNotFound
}

// Total is derived from the items on every call and never stored, so it
// cannot drift from the cart contents.
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
