package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SNAPSHOT - The whole restaurant, as the engine sees it
// =============================================================================

// Snapshot is the sole contract between the engine and its environment.
// The engine never mutates one; the store replaces it wholesale.
type Snapshot struct {
	Products  []Product       `json:"products"`
	Recipes   []Recipe        `json:"recipes"`
	Sales     []SalesRecord   `json:"sales"`
	Inventory []InventoryItem `json:"inventory"`
	Expenses  []Expense       `json:"expenses"`

	// Version counts applied commands. Informational; persistence is
	// last-write-wins regardless.
	Version   int64     `json:"version"`
	UpdatedAt TimePoint `json:"updatedAt"`
}

// Clone deep-copies the snapshot so a reducer can mutate the copy freely.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return &Snapshot{}
	}
	out := &Snapshot{
		Products:  make([]Product, len(s.Products)),
		Recipes:   make([]Recipe, len(s.Recipes)),
		Sales:     append([]SalesRecord(nil), s.Sales...),
		Inventory: make([]InventoryItem, len(s.Inventory)),
		Expenses:  append([]Expense(nil), s.Expenses...),
		Version:   s.Version,
		UpdatedAt: s.UpdatedAt,
	}
	for i, p := range s.Products {
		p.PriceHistory = clonePriceEntries(p.PriceHistory)
		p.RestockHistory = append([]RestockEntry(nil), p.RestockHistory...)
		p.InitialQuantity = cloneDecimalPtr(p.InitialQuantity)
		out.Products[i] = p
	}
	for i, r := range s.Recipes {
		r.Ingredients = append([]Ingredient(nil), r.Ingredients...)
		out.Recipes[i] = r
	}
	for i, item := range s.Inventory {
		history := make([]StockEntry, len(item.StockHistory))
		for j, e := range item.StockHistory {
			e.Amount = cloneDecimalPtr(e.Amount)
			history[j] = e
		}
		item.StockHistory = history
		out.Inventory[i] = item
	}
	return out
}

func clonePriceEntries(in []PriceEntry) []PriceEntry {
	if in == nil {
		return nil
	}
	out := make([]PriceEntry, len(in))
	for i, e := range in {
		e.PackageSize = cloneDecimalPtr(e.PackageSize)
		e.Quantity = cloneDecimalPtr(e.Quantity)
		out[i] = e
	}
	return out
}

func cloneDecimalPtr(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

// =============================================================================
// INDEX - Entity arena keyed by id
// =============================================================================

// Index resolves references inside one snapshot. Build it once per read and
// pass it around; it points into the snapshot and must not outlive it.
type Index struct {
	snap        *Snapshot
	products    map[ProductID]int
	recipes     map[RecipeID]int
	recipeNames map[string]int
	inventory   map[ProductID]int
	expenses    map[ExpenseID]int
}

func NewIndex(s *Snapshot) *Index {
	if s == nil {
		s = &Snapshot{}
	}
	idx := &Index{
		snap:        s,
		products:    make(map[ProductID]int, len(s.Products)),
		recipes:     make(map[RecipeID]int, len(s.Recipes)),
		recipeNames: make(map[string]int, len(s.Recipes)),
		inventory:   make(map[ProductID]int, len(s.Inventory)),
		expenses:    make(map[ExpenseID]int, len(s.Expenses)),
	}
	for i, p := range s.Products {
		idx.products[p.ID] = i
	}
	for i, r := range s.Recipes {
		idx.recipes[r.ID] = i
		// first recipe with a given name wins
		if _, ok := idx.recipeNames[r.Name]; !ok {
			idx.recipeNames[r.Name] = i
		}
	}
	for i, item := range s.Inventory {
		idx.inventory[item.ProductID] = i
	}
	for i, e := range s.Expenses {
		idx.expenses[e.ID] = i
	}
	return idx
}

func (x *Index) Snapshot() *Snapshot { return x.snap }

func (x *Index) Product(id ProductID) (*Product, bool) {
	i, ok := x.products[id]
	if !ok {
		return nil, false
	}
	return &x.snap.Products[i], true
}

func (x *Index) Inventory(id ProductID) (*InventoryItem, bool) {
	i, ok := x.inventory[id]
	if !ok {
		return nil, false
	}
	return &x.snap.Inventory[i], true
}

func (x *Index) Expense(id ExpenseID) (*Expense, bool) {
	i, ok := x.expenses[id]
	if !ok {
		return nil, false
	}
	return &x.snap.Expenses[i], true
}

func (x *Index) Recipe(id RecipeID) (*Recipe, bool) {
	i, ok := x.recipes[id]
	if !ok {
		return nil, false
	}
	return &x.snap.Recipes[i], true
}

// RecipeForSale finds the recipe a sale refers to: by id, then exact name,
// then case-insensitive trimmed name.
func (x *Index) RecipeForSale(s SalesRecord) (*Recipe, bool) {
	if s.RecipeID != "" {
		if r, ok := x.Recipe(s.RecipeID); ok {
			return r, true
		}
	}
	if s.RecipeName == "" {
		return nil, false
	}
	if i, ok := x.recipeNames[s.RecipeName]; ok {
		return &x.snap.Recipes[i], true
	}
	want := strings.ToLower(strings.TrimSpace(s.RecipeName))
	for i := range x.snap.Recipes {
		if strings.ToLower(strings.TrimSpace(x.snap.Recipes[i].Name)) == want {
			return &x.snap.Recipes[i], true
		}
	}
	return nil, false
}
