// Package ledger implements the inventory transaction ledger: every
// stock-affecting action is recorded as an immutable entry and the current
// stock of an item is a projection of its entry stream.
package ledger

import (
	"errors"
	"fmt"
	"time"
)

// Category groups inventory items on the dashboard.
type Category string

const (
	CategorySeed       Category = "SEED"
	CategoryFertilizer Category = "FERTILIZER"
	CategoryOther      Category = "OTHER"
)

// Item is the current stock projection for one inventory item. Stock is only
// mutated as a side effect of a committed ledger entry.
type Item struct {
	ID                string
	Name              string
	Category          Category
	Stock             float64
	Unit              string
	PricePerUnit      float64
	LowStockThreshold float64
	OwnerID           string
	LastUpdated       time.Time
}

// EntryType enumerates supported stock-affecting events.
type EntryType string

const (
	// EntryTypePurchase records stock bought in.
	EntryTypePurchase EntryType = "PURCHASE"
	// EntryTypeSeedPlanted records seeds leaving stock into a plant bed.
	EntryTypeSeedPlanted EntryType = "SEED_PLANTED"
	// EntryTypeFertilizerUsed records fertilizer consumption.
	EntryTypeFertilizerUsed EntryType = "FERTILIZER_USED"
	// EntryTypeMaterialUsed records other material consumption.
	EntryTypeMaterialUsed EntryType = "MATERIAL_USED"
	// EntryTypeSale records produce or stock sold.
	EntryTypeSale EntryType = "SALE"
	// EntryTypeAdjustment records a manual stock correction, either sign.
	EntryTypeAdjustment EntryType = "ADJUSTMENT"
	// EntryTypeInitialStock records the opening quantity of a new item.
	EntryTypeInitialStock EntryType = "INITIAL_STOCK"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryTypePurchase, EntryTypeSeedPlanted, EntryTypeFertilizerUsed,
		EntryTypeMaterialUsed, EntryTypeSale, EntryTypeAdjustment, EntryTypeInitialStock:
		return true
	}
	return false
}

// Consumes reports whether t always takes stock out (quantity change < 0).
func (t EntryType) Consumes() bool {
	switch t {
	case EntryTypeSeedPlanted, EntryTypeFertilizerUsed, EntryTypeMaterialUsed, EntryTypeSale:
		return true
	}
	return false
}

// Acquires reports whether t always brings stock in (quantity change > 0).
func (t EntryType) Acquires() bool {
	return t == EntryTypePurchase || t == EntryTypeInitialStock
}

// Entry is one immutable audit record. Item name and unit are denormalized
// snapshots taken at write time so historical rows survive later renames.
type Entry struct {
	ID             string
	ItemID         string
	ItemName       string
	Unit           string
	OccurredAt     time.Time
	Type           EntryType
	QuantityChange float64
	UnitPrice      float64
	TotalValue     float64
	Notes          string
	UserID         string
	PlantID        string
}

// ApplyInput describes one requested stock mutation.
type ApplyInput struct {
	ItemID    string
	Delta     float64
	Type      EntryType
	UnitPrice float64
	Notes     string
	PlantID   string
	UserID    string
}

// EntryFilter scopes and filters entry queries. Zero values mean "no filter";
// filters compose with AND. Results are ordered newest first.
type EntryFilter struct {
	UserID           string
	ItemID           string
	ItemNameContains string
	PlantID          string
	From             time.Time
	To               time.Time
	Limit            int
	Offset           int
}

var (
	// ErrInvalidQuantity indicates a zero or wrongly signed quantity change.
	ErrInvalidQuantity = errors.New("ledger: invalid quantity change")
	// ErrInvalidUnitPrice indicates a negative unit price.
	ErrInvalidUnitPrice = errors.New("ledger: unit price must be >= 0")
	// ErrRetryExhausted indicates transient write conflicts persisted past the retry bound.
	ErrRetryExhausted = errors.New("ledger: write conflict retries exhausted")
)

// InsufficientStockError rejects a consumption that would drive stock below
// zero. Available reflects the quantity observed inside the failing
// transaction, after any concurrent winner committed.
type InsufficientStockError struct {
	ItemID    string
	Requested float64
	Available float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("ledger: insufficient stock for item %s: requested %.2f, available %.2f",
		e.ItemID, e.Requested, e.Available)
}

// UserMessage implements the user-safe message contract.
func (e *InsufficientStockError) UserMessage() string {
	return fmt.Sprintf("Not enough stock: only %.2f available.", e.Available)
}
