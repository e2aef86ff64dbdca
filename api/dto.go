/*
dto.go - Request and response bodies for the cost ledger API

PURPOSE:
  Request types carry validator tags and convert into store commands.
  Response types wrap engine results with the extra context a client needs
  (the date asked about, warnings when strict).

NAMING CONVENTION:
  - *Request: request bodies from clients
  - *DTO / *Response: bodies returned to clients
  Engine types (ledger.Product, ledger.Timeline, ...) already carry JSON tags
  and are returned as-is where no extra context is needed.

VALIDATION:
  Shape checks (required, gte=0, oneof) run in decodeAndValidate before a
  command is built. Cross-entity rules (duplicate ids, unknown recipe) are
  the reducer's job and come back as domain errors.

SEE ALSO:
  - handlers.go: Uses these types
  - store/commands.go: The commands requests become
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/cost-ledger/factory"
	"github.com/warp/cost-ledger/ledger"
	"github.com/warp/cost-ledger/store"
)

// =============================================================================
// PRODUCTS
// =============================================================================

type CreateProductRequest struct {
	ID              string           `json:"id"`
	Name            string           `json:"name" validate:"required"`
	Category        string           `json:"category"`
	Unit            string           `json:"unit"`
	PackageSize     decimal.Decimal  `json:"packageSize" validate:"gte=0"`
	Quantity        decimal.Decimal  `json:"quantity" validate:"gte=0"`
	Cost            decimal.Decimal  `json:"cost" validate:"gte=0"`
	InitialQuantity *decimal.Decimal `json:"initialQuantity"`
	// Date is the effective date of the first price entry; empty means today.
	Date ledger.TimePoint `json:"date"`
}

func (req CreateProductRequest) command() store.AddProduct {
	return store.AddProduct{
		Product: ledger.Product{
			ID:              ledger.ProductID(req.ID),
			Name:            req.Name,
			Category:        req.Category,
			Unit:            req.Unit,
			PackageSize:     req.PackageSize,
			Quantity:        req.Quantity,
			Cost:            req.Cost,
			InitialQuantity: req.InitialQuantity,
		},
		Date: req.Date,
	}
}

// UpdateProductRequest is a patch: absent fields are left alone.
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1"`
	Category    *string          `json:"category"`
	Unit        *string          `json:"unit"`
	PackageSize *decimal.Decimal `json:"packageSize" validate:"omitempty,gte=0"`
	Quantity    *decimal.Decimal `json:"quantity" validate:"omitempty,gte=0"`
	Cost        *decimal.Decimal `json:"cost" validate:"omitempty,gte=0"`
	// Date may be in the past to backdate a price change.
	Date ledger.TimePoint `json:"date"`
}

func (req UpdateProductRequest) command(id ledger.ProductID) store.UpdateProduct {
	return store.UpdateProduct{
		ID:          id,
		Name:        req.Name,
		Category:    req.Category,
		Unit:        req.Unit,
		PackageSize: req.PackageSize,
		Quantity:    req.Quantity,
		Cost:        req.Cost,
		Date:        req.Date,
	}
}

type RestockRequest struct {
	Date     ledger.TimePoint `json:"date"`
	Quantity decimal.Decimal  `json:"quantity" validate:"gt=0"`
	// Cost per purchase; zero means the product's current cost.
	Cost decimal.Decimal `json:"cost" validate:"gte=0"`
}

type ResetRequest struct {
	Date  ledger.TimePoint `json:"date"`
	Stock decimal.Decimal  `json:"stock"`
	Info  string           `json:"info"`
}

// ProductSummaryDTO is one row of the product list.
type ProductSummaryDTO struct {
	ID           ledger.ProductID  `json:"id"`
	Name         string            `json:"name"`
	Category     string            `json:"category,omitempty"`
	Unit         string            `json:"unit"`
	Cost         decimal.Decimal   `json:"cost"`
	UnitCost     decimal.Decimal   `json:"unitCost"`
	CostSource   ledger.CostSource `json:"costSource"`
	CurrentStock decimal.Decimal   `json:"currentStock"`
}

type ProductDetailDTO struct {
	Product   ledger.Product        `json:"product"`
	Inventory *ledger.InventoryItem `json:"inventory,omitempty"`
}

// CostResponse is a product's cost basis on one date.
type CostResponse struct {
	ProductID ledger.ProductID `json:"productId"`
	Date      ledger.TimePoint `json:"date"`
	ledger.ResolvedCost
	Warnings []ledger.Warning `json:"warnings,omitempty"`
}

type TimelineResponse struct {
	ledger.Timeline
	FinalStock decimal.Decimal        `json:"finalStock"`
	Negative   []ledger.TimelineEvent `json:"negative"`
	Warnings   []ledger.Warning       `json:"warnings,omitempty"`
}

// =============================================================================
// RECIPES
// =============================================================================

type IngredientRequest struct {
	ProductID string          `json:"productId" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	Unit      string          `json:"unit"`
}

type RecipeRequest struct {
	ID          string              `json:"id"`
	Name        string              `json:"name" validate:"required"`
	Category    string              `json:"category"`
	Price       decimal.Decimal     `json:"price" validate:"gte=0"`
	Ingredients []IngredientRequest `json:"ingredients" validate:"dive"`
}

func (req RecipeRequest) recipe() ledger.Recipe {
	r := ledger.Recipe{
		ID:          ledger.RecipeID(req.ID),
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Ingredients: make([]ledger.Ingredient, len(req.Ingredients)),
	}
	for i, ing := range req.Ingredients {
		r.Ingredients[i] = ledger.Ingredient{
			ProductID: ledger.ProductID(ing.ProductID),
			Quantity:  ing.Quantity,
			Unit:      ing.Unit,
		}
	}
	return r
}

// RecipeCostResponse is the cost of one serving on a date, with margin
// against the menu price.
type RecipeCostResponse struct {
	ledger.ServingCost
	Price    decimal.Decimal  `json:"price"`
	Margin   decimal.Decimal  `json:"margin"`
	Warnings []ledger.Warning `json:"warnings,omitempty"`
}

// =============================================================================
// SALES & EXPENSES
// =============================================================================

type SaleRequest struct {
	ID         string           `json:"id"`
	RecipeID   string           `json:"recipeId" validate:"required_without=RecipeName"`
	RecipeName string           `json:"recipeName"`
	Date       ledger.TimePoint `json:"date"`
	Quantity   decimal.Decimal  `json:"quantity" validate:"gt=0"`
	// Price per serving; zero means the recipe's price.
	Price decimal.Decimal `json:"price" validate:"gte=0"`
}

func (req SaleRequest) command() store.RecordSale {
	return store.RecordSale{Sale: ledger.SalesRecord{
		ID:         ledger.SaleID(req.ID),
		RecipeID:   ledger.RecipeID(req.RecipeID),
		RecipeName: req.RecipeName,
		Date:       req.Date,
		Quantity:   req.Quantity,
		Price:      req.Price,
	}}
}

type ExpenseRequest struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"gte=0"`
	Recurring bool            `json:"recurring"`
	Frequency string          `json:"frequency" validate:"omitempty,oneof=daily weekly monthly"`
}

func (req ExpenseRequest) expense() ledger.Expense {
	return ledger.Expense{
		ID:        ledger.ExpenseID(req.ID),
		Name:      req.Name,
		Category:  req.Category,
		Amount:    req.Amount,
		Recurring: req.Recurring,
		Frequency: ledger.Frequency(req.Frequency),
	}
}

// =============================================================================
// REPORTS
// =============================================================================

type DailyCOGSResponse struct {
	From     *ledger.TimePoint  `json:"from,omitempty"`
	To       *ledger.TimePoint  `json:"to,omitempty"`
	Days     []ledger.DailyCOGS `json:"days"`
	Total    decimal.Decimal    `json:"total"`
	Warnings []ledger.Warning   `json:"warnings,omitempty"`
}

type BreakevenResponse struct {
	ledger.Breakeven
	Warnings []ledger.Warning `json:"warnings,omitempty"`
}

// ProductAnomalies lists what replay flagged for one product.
type ProductAnomalies struct {
	ProductID ledger.ProductID         `json:"productId"`
	Name      string                   `json:"name"`
	Negative  []ledger.TimelineEvent   `json:"negative,omitempty"`
	Unmatched []ledger.RestockLogEntry `json:"unmatched,omitempty"`
}

// AnomalyReport is the result of replaying every product in a snapshot.
type AnomalyReport struct {
	Version  int64              `json:"version"`
	Scanned  int                `json:"scanned"`
	Products []ProductAnomalies `json:"products"`
	Warnings []ledger.Warning   `json:"warnings"`
}

// Count is the number of flagged replay steps and log entries.
func (r AnomalyReport) Count() int {
	n := 0
	for _, p := range r.Products {
		n += len(p.Negative) + len(p.Unmatched)
	}
	return n
}

// =============================================================================
// SCENARIOS & ADMIN
// =============================================================================

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenarioId" validate:"required"`
	// RestaurantID defaults to the scenario id.
	RestaurantID string `json:"restaurantId"`
}

type LoadScenarioResponse struct {
	Scenario     *factory.Scenario `json:"scenario"`
	RestaurantID string            `json:"restaurantId"`
	Version      int64             `json:"version"`
}

type HealthResponse struct {
	Status   string    `json:"status"`
	Sessions int       `json:"sessions"`
	Time     time.Time `json:"time"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
