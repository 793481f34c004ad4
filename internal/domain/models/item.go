package models

import (
	"fmt"
	"strings"
	"time"
)

// Category classifies a catalog item.
type Category string

const (
	CategoryChemical    Category = "CHEMICAL"
	CategoryGlassware   Category = "GLASSWARE"
	CategoryConsumable  Category = "CONSUMABLE"
	CategoryBioMaterial Category = "BIO_MATERIAL"
	CategoryEquipment   Category = "EQUIPMENT"
)

// ParseCategory validates a raw category value.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(raw)))
	switch c {
	case CategoryChemical, CategoryGlassware, CategoryConsumable, CategoryBioMaterial, CategoryEquipment:
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", raw)
}

// UnitType is the measurement unit stock quantities are counted in.
type UnitType string

const (
	UnitGram       UnitType = "g"
	UnitMilligram  UnitType = "mg"
	UnitKilogram   UnitType = "kg"
	UnitMilliliter UnitType = "mL"
	UnitLiter      UnitType = "L"
	UnitPieces     UnitType = "pieces"
	UnitBox        UnitType = "box"
	UnitPack       UnitType = "pack"
)

// ParseUnitType validates a raw unit value.
func ParseUnitType(raw string) (UnitType, error) {
	u := UnitType(strings.TrimSpace(raw))
	switch u {
	case UnitGram, UnitMilligram, UnitKilogram, UnitMilliliter, UnitLiter, UnitPieces, UnitBox, UnitPack:
		return u, nil
	}
	return "", fmt.Errorf("unknown unit type %q", raw)
}

// Batch is a dated sub-quantity of an item's stock. Batches are kept in
// insertion order; two additions with the same batch number stay separate.
type Batch struct {
	BatchNo    string     `bson:"batchNo" json:"batchNo"`
	Quantity   int        `bson:"quantity" json:"quantity"`
	ExpiryDate *time.Time `bson:"expiryDate,omitempty" json:"expiryDate,omitempty"`
}

// Item is a catalog entry with batch-structured stock. Name is stored
// normalized (trimmed, lowercase) and acts as the lookup key on add-stock.
type Item struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Category      Category  `bson:"category" json:"category"`
	UnitType      UnitType  `bson:"unitType" json:"unitType"`
	Image         string    `bson:"image,omitempty" json:"image,omitempty"`
	ImagePublicID string    `bson:"imagePublicId,omitempty" json:"-"`
	Batches       []Batch   `bson:"batches" json:"batches"`
	TotalQuantity int       `bson:"totalQuantity" json:"totalQuantity"`
	MinThreshold  int       `bson:"minThreshold" json:"minThreshold"`
	SKU           string    `bson:"sku" json:"sku"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NormalizeItemName produces the canonical lookup key for an item name.
func NormalizeItemName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// AppendBatch records a new delivery. Batches are never merged, even when
// the batch number repeats.
func (it *Item) AppendBatch(b Batch) {
	it.Batches = append(it.Batches, b)
	it.TotalQuantity += b.Quantity
}

// BatchByNo returns a pointer into the batch list, or nil.
func (it *Item) BatchByNo(batchNo string) *Batch {
	for i := range it.Batches {
		if it.Batches[i].BatchNo == batchNo {
			return &it.Batches[i]
		}
	}
	return nil
}

// DepleteFIFO removes qty units walking the batch list front to back,
// zeroing each batch in turn. The caller must have checked sufficiency
// against TotalQuantity; leftover demand is returned for the invariant
// check in tests.
func (it *Item) DepleteFIFO(qty int) int {
	remaining := qty
	for i := range it.Batches {
		if remaining <= 0 {
			break
		}
		b := &it.Batches[i]
		if b.Quantity >= remaining {
			b.Quantity -= remaining
			remaining = 0
		} else {
			remaining -= b.Quantity
			b.Quantity = 0
		}
	}
	it.TotalQuantity -= qty
	return remaining
}

// DepleteBatch removes qty units from the named batch only.
func (it *Item) DepleteBatch(batchNo string, qty int) {
	if b := it.BatchByNo(batchNo); b != nil {
		b.Quantity -= qty
	}
	it.TotalQuantity -= qty
}

// RestoreFront credits qty units back to the first batch. Returned stock is
// not traced back to its originating batch, so expiry provenance is lost on
// return.
func (it *Item) RestoreFront(qty int) {
	if len(it.Batches) > 0 {
		it.Batches[0].Quantity += qty
	} else {
		it.Batches = append(it.Batches, Batch{BatchNo: "RETURNED", Quantity: qty})
	}
	it.TotalQuantity += qty
}

// BatchSum recomputes total stock from the batch list. It must equal
// TotalQuantity after every mutation.
func (it *Item) BatchSum() int {
	sum := 0
	for _, b := range it.Batches {
		sum += b.Quantity
	}
	return sum
}
