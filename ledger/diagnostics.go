package ledger

import (
	"fmt"
	"sync"
)

// =============================================================================
// DIAGNOSTICS - Surfacing what the forgiving read paths skip
// =============================================================================

type WarningKind string

const (
	WarnMissingRecipe     WarningKind = "missing_recipe"
	WarnMissingProduct    WarningKind = "missing_product"
	WarnDegenerateDivisor WarningKind = "degenerate_divisor"
)

// Warning describes one contribution the engine dropped or patched.
type Warning struct {
	Kind       WarningKind `json:"kind"`
	SaleID     SaleID      `json:"saleId,omitempty"`
	RecipeID   RecipeID    `json:"recipeId,omitempty"`
	RecipeName string      `json:"recipeName,omitempty"`
	ProductID  ProductID   `json:"productId,omitempty"`
	Date       TimePoint   `json:"date"`
	Message    string      `json:"message"`
}

// Diagnostics collects warnings. The zero value records everything; a nil
// *Diagnostics records nothing. Safe for concurrent use so one collector can
// span several reads.
type Diagnostics struct {
	// Strict tells callers (the API) to return warnings with results.
	Strict bool

	mu       sync.Mutex
	warnings []Warning
	seen     map[string]bool
}

func NewDiagnostics(strict bool) *Diagnostics {
	return &Diagnostics{Strict: strict}
}

func (d *Diagnostics) add(w Warning) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	// the same broken reference is hit once per read path; report it once
	key := fmt.Sprintf("%s|%s|%s|%s|%s|%s", w.Kind, w.SaleID, w.RecipeID, w.RecipeName, w.ProductID, w.Date)
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	if d.seen[key] {
		return
	}
	d.seen[key] = true
	d.warnings = append(d.warnings, w)
}

func (d *Diagnostics) Warnings() []Warning {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Warning(nil), d.warnings...)
}

func (d *Diagnostics) Len() int {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.warnings)
}

func (d *Diagnostics) missingRecipe(s SalesRecord) {
	d.add(Warning{
		Kind:       WarnMissingRecipe,
		SaleID:     s.ID,
		RecipeID:   s.RecipeID,
		RecipeName: s.RecipeName,
		Date:       s.Date,
		Message:    fmt.Sprintf("sale %s references unknown recipe (id=%q name=%q); contributes zero", s.ID, s.RecipeID, s.RecipeName),
	})
}

func (d *Diagnostics) missingProduct(r *Recipe, productID ProductID, at TimePoint) {
	d.add(Warning{
		Kind:       WarnMissingProduct,
		RecipeID:   r.ID,
		RecipeName: r.Name,
		ProductID:  productID,
		Date:       at,
		Message:    fmt.Sprintf("recipe %q uses unknown product %s; contributes zero", r.Name, productID),
	})
}

func (d *Diagnostics) degenerateDivisor(p *Product, at TimePoint) {
	d.add(Warning{
		Kind:      WarnDegenerateDivisor,
		ProductID: p.ID,
		Date:      at,
		Message:   fmt.Sprintf("product %q has no usable quantity x package size on %s; divisor treated as 1", p.Name, at),
	})
}

// =============================================================================
// OPTIONS
// =============================================================================

type options struct {
	diag *Diagnostics
	from *TimePoint
	to   *TimePoint
}

// Option tunes a read.
type Option func(*options)

// WithDiagnostics records skipped references and patched divisors into d.
func WithDiagnostics(d *Diagnostics) Option {
	return func(o *options) { o.diag = d }
}

// WithRange limits aggregation to sales in [from, to] (calendar days,
// inclusive). Either bound may be zero to leave that side open.
func WithRange(from, to TimePoint) Option {
	return func(o *options) {
		if !from.IsZero() {
			f := from.Day()
			o.from = &f
		}
		if !to.IsZero() {
			t := to.Day()
			o.to = &t
		}
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) inRange(at TimePoint) bool {
	day := at.Day()
	if o.from != nil && day.Before(*o.from) {
		return false
	}
	if o.to != nil && day.After(*o.to) {
		return false
	}
	return true
}
