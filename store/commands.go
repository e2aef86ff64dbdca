/*
commands.go - Mutations a restaurant snapshot accepts

PURPOSE:
  Every write to a restaurant goes through one of these commands. A command
  mutates a private clone handed to it by Apply; it never sees the snapshot
  readers hold.

HISTORY RULES:
  - Creating a product seeds its price history with the initial cost.
  - Editing cost or package metadata appends a price entry only when the new
    values differ from the last entry inserted.
  - Editing quantity appends a reset entry to the stock history.
  - Restocks append to restock history and to stock history. They never touch
    Product.Cost.
  - Sales append one stock entry per ingredient product.

SEE ALSO:
  - apply.go: the reducer
  - ledger/timeline.go: how these histories are replayed
*/
package store

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/cost-ledger/ledger"
)

// Command is one mutation of a restaurant snapshot.
type Command interface {
	CommandName() string
	apply(s *ledger.Snapshot, env *env) error
}

// env is what a command may read from the outside world.
type env struct {
	now   ledger.TimePoint
	newID func() string
}

// dateOr returns d, or today if d is unset.
func (e *env) dateOr(d ledger.TimePoint) ledger.TimePoint {
	if d.IsZero() {
		return e.now.Day()
	}
	return d
}

// =============================================================================
// PRODUCTS
// =============================================================================

type AddProduct struct {
	Product ledger.Product
	// Date is the effective date of the seeded price entry; zero means today.
	Date ledger.TimePoint
}

func (AddProduct) CommandName() string { return "add_product" }

func (c AddProduct) apply(s *ledger.Snapshot, env *env) error {
	p := c.Product
	if strings.TrimSpace(p.Name) == "" {
		return ledger.Invalid("name", "required")
	}
	if p.Cost.IsNegative() {
		return ledger.Invalid("cost", "must not be negative")
	}
	if p.ID == "" {
		p.ID = ledger.ProductID(env.newID())
	}
	idx := ledger.NewIndex(s)
	if _, ok := idx.Product(p.ID); ok {
		return ledger.ErrDuplicateID
	}

	date := env.dateOr(c.Date)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = date
	}
	if p.InitialQuantity == nil {
		q := p.Quantity
		p.InitialQuantity = &q
	}
	if len(p.PriceHistory) == 0 {
		p.PriceHistory = []ledger.PriceEntry{priceEntry(date, p)}
	}
	s.Products = append(s.Products, p)

	if _, ok := idx.Inventory(p.ID); !ok {
		s.Inventory = append(s.Inventory, ledger.InventoryItem{
			ProductID:    p.ID,
			CurrentStock: p.Baseline(),
		})
	}
	return nil
}

// UpdateProduct patches a product. Nil fields are left alone.
type UpdateProduct struct {
	ID          ledger.ProductID
	Name        *string
	Category    *string
	Unit        *string
	PackageSize *decimal.Decimal
	Quantity    *decimal.Decimal
	Cost        *decimal.Decimal
	// Date is the effective date of any price or reset entry this edit
	// produces; zero means today. It may be in the past.
	Date ledger.TimePoint
}

func (UpdateProduct) CommandName() string { return "update_product" }

func (c UpdateProduct) apply(s *ledger.Snapshot, env *env) error {
	idx := ledger.NewIndex(s)
	p, ok := idx.Product(c.ID)
	if !ok {
		return ledger.ErrProductNotFound
	}
	if c.Name != nil {
		if strings.TrimSpace(*c.Name) == "" {
			return ledger.Invalid("name", "required")
		}
		p.Name = *c.Name
	}
	if c.Category != nil {
		p.Category = *c.Category
	}
	if c.Unit != nil {
		p.Unit = *c.Unit
	}
	if c.Cost != nil && c.Cost.IsNegative() {
		return ledger.Invalid("cost", "must not be negative")
	}

	date := env.dateOr(c.Date)
	if c.PackageSize != nil {
		p.PackageSize = *c.PackageSize
	}
	if c.Cost != nil {
		p.Cost = *c.Cost
	}
	quantityChanged := c.Quantity != nil && !c.Quantity.Equal(p.Quantity)
	if c.Quantity != nil {
		p.Quantity = *c.Quantity
	}
	// Only a cost change is a price event. Package metadata sent with it
	// rides on the entry; a metadata-only edit leaves the history alone.
	if c.Cost != nil {
		if n := len(p.PriceHistory); n == 0 || !p.PriceHistory[n-1].Price.Equal(*c.Cost) {
			p.PriceHistory = append(p.PriceHistory, priceEntry(date, *p))
		}
	}

	if quantityChanged {
		item := inventoryFor(s, p)
		item.StockHistory = append(item.StockHistory, ledger.StockEntry{
			Date:   date,
			Stock:  p.Quantity,
			Source: ledger.SourceReset,
			Info:   "quantity edit",
		})
		item.CurrentStock = p.Quantity
	}
	return nil
}

type DeleteProduct struct {
	ID ledger.ProductID
}

func (DeleteProduct) CommandName() string { return "delete_product" }

// apply removes the product and its inventory item. Recipes that use it
// keep the ingredient line, which then costs zero.
func (c DeleteProduct) apply(s *ledger.Snapshot, _ *env) error {
	i := indexOf(s.Products, func(p ledger.Product) bool { return p.ID == c.ID })
	if i < 0 {
		return ledger.ErrProductNotFound
	}
	s.Products = append(s.Products[:i], s.Products[i+1:]...)
	if j := indexOf(s.Inventory, func(it ledger.InventoryItem) bool { return it.ProductID == c.ID }); j >= 0 {
		s.Inventory = append(s.Inventory[:j], s.Inventory[j+1:]...)
	}
	return nil
}

// =============================================================================
// STOCK MOVEMENTS
// =============================================================================

// RecordRestock logs a delivery. Cost is per purchase, like Product.Cost;
// zero means the product's current cost.
type RecordRestock struct {
	ProductID ledger.ProductID
	Date      ledger.TimePoint
	Quantity  decimal.Decimal
	Cost      decimal.Decimal
}

func (RecordRestock) CommandName() string { return "record_restock" }

func (c RecordRestock) apply(s *ledger.Snapshot, env *env) error {
	if !c.Quantity.IsPositive() {
		return ledger.Invalid("quantity", "must be positive")
	}
	if c.Cost.IsNegative() {
		return ledger.Invalid("cost", "must not be negative")
	}
	idx := ledger.NewIndex(s)
	p, ok := idx.Product(c.ProductID)
	if !ok {
		return ledger.ErrProductNotFound
	}
	cost := c.Cost
	if cost.IsZero() {
		cost = p.Cost
	}
	date := env.dateOr(c.Date)
	p.RestockHistory = append(p.RestockHistory, ledger.RestockEntry{
		Date:      date,
		Quantity:  c.Quantity,
		Cost:      cost,
		TotalCost: cost.Mul(c.Quantity),
	})

	item := inventoryFor(s, p)
	amount := c.Quantity
	item.CurrentStock = item.CurrentStock.Add(amount)
	item.StockHistory = append(item.StockHistory, ledger.StockEntry{
		Date:   date,
		Stock:  item.CurrentStock,
		Source: ledger.SourceManualRestock,
		Amount: &amount,
	})
	return nil
}

// ResetStock records a stocktake: the count on Date is Stock, whatever the
// running balance says.
type ResetStock struct {
	ProductID ledger.ProductID
	Date      ledger.TimePoint
	Stock     decimal.Decimal
	Info      string
}

func (ResetStock) CommandName() string { return "reset_stock" }

func (c ResetStock) apply(s *ledger.Snapshot, env *env) error {
	idx := ledger.NewIndex(s)
	p, ok := idx.Product(c.ProductID)
	if !ok {
		return ledger.ErrProductNotFound
	}
	item := inventoryFor(s, p)
	item.CurrentStock = c.Stock
	item.StockHistory = append(item.StockHistory, ledger.StockEntry{
		Date:   env.dateOr(c.Date),
		Stock:  c.Stock,
		Source: ledger.SourceReset,
		Info:   c.Info,
	})
	return nil
}

// RecordSale appends a sale and depletes each ingredient's stock. Zero
// Price means the recipe's price.
type RecordSale struct {
	Sale ledger.SalesRecord
}

func (RecordSale) CommandName() string { return "record_sale" }

func (c RecordSale) apply(s *ledger.Snapshot, env *env) error {
	sale := c.Sale
	if !sale.Quantity.IsPositive() {
		return ledger.Invalid("quantity", "must be positive")
	}
	if sale.Price.IsNegative() {
		return ledger.Invalid("price", "must not be negative")
	}
	idx := ledger.NewIndex(s)
	recipe, ok := idx.RecipeForSale(sale)
	if !ok {
		return ledger.ErrRecipeNotFound
	}
	if sale.ID == "" {
		sale.ID = ledger.SaleID(env.newID())
	}
	for _, existing := range s.Sales {
		if existing.ID == sale.ID {
			return ledger.ErrDuplicateID
		}
	}
	sale.RecipeID = recipe.ID
	sale.RecipeName = recipe.Name
	sale.Date = env.dateOr(sale.Date)
	if sale.Price.IsZero() {
		sale.Price = recipe.Price
	}
	s.Sales = append(s.Sales, sale)

	for _, ing := range recipe.Ingredients {
		p, ok := idx.Product(ing.ProductID)
		if !ok {
			continue
		}
		item := inventoryFor(s, p)
		amount := ing.Quantity.Mul(sale.Quantity).Neg()
		item.CurrentStock = item.CurrentStock.Add(amount)
		item.StockHistory = append(item.StockHistory, ledger.StockEntry{
			Date:   sale.Date,
			Stock:  item.CurrentStock,
			Source: ledger.SourceSale,
			Amount: &amount,
			Info:   recipe.Name,
		})
	}
	return nil
}

// =============================================================================
// RECIPES
// =============================================================================

type AddRecipe struct {
	Recipe ledger.Recipe
}

func (AddRecipe) CommandName() string { return "add_recipe" }

func (c AddRecipe) apply(s *ledger.Snapshot, env *env) error {
	r := c.Recipe
	if err := validateRecipe(r); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = ledger.RecipeID(env.newID())
	}
	if _, ok := ledger.NewIndex(s).Recipe(r.ID); ok {
		return ledger.ErrDuplicateID
	}
	s.Recipes = append(s.Recipes, r)
	return nil
}

// UpdateRecipe replaces a recipe wholesale, keeping its id. Past sales are
// re-costed with the new ingredient list on the next read.
type UpdateRecipe struct {
	Recipe ledger.Recipe
}

func (UpdateRecipe) CommandName() string { return "update_recipe" }

func (c UpdateRecipe) apply(s *ledger.Snapshot, _ *env) error {
	if err := validateRecipe(c.Recipe); err != nil {
		return err
	}
	i := indexOf(s.Recipes, func(r ledger.Recipe) bool { return r.ID == c.Recipe.ID })
	if i < 0 {
		return ledger.ErrRecipeNotFound
	}
	s.Recipes[i] = c.Recipe
	return nil
}

type DeleteRecipe struct {
	ID ledger.RecipeID
}

func (DeleteRecipe) CommandName() string { return "delete_recipe" }

// apply leaves existing sales in place; they keep their revenue and cost zero.
func (c DeleteRecipe) apply(s *ledger.Snapshot, _ *env) error {
	i := indexOf(s.Recipes, func(r ledger.Recipe) bool { return r.ID == c.ID })
	if i < 0 {
		return ledger.ErrRecipeNotFound
	}
	s.Recipes = append(s.Recipes[:i], s.Recipes[i+1:]...)
	return nil
}

func validateRecipe(r ledger.Recipe) error {
	if strings.TrimSpace(r.Name) == "" {
		return ledger.Invalid("name", "required")
	}
	if r.Price.IsNegative() {
		return ledger.Invalid("price", "must not be negative")
	}
	for _, ing := range r.Ingredients {
		if ing.ProductID == "" {
			return ledger.Invalid("ingredients.productId", "required")
		}
		if !ing.Quantity.IsPositive() {
			return ledger.Invalid("ingredients.quantity", "must be positive")
		}
	}
	return nil
}

// =============================================================================
// EXPENSES
// =============================================================================

type AddExpense struct {
	Expense ledger.Expense
}

func (AddExpense) CommandName() string { return "add_expense" }

func (c AddExpense) apply(s *ledger.Snapshot, env *env) error {
	e := c.Expense
	if err := validateExpense(e); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = ledger.ExpenseID(env.newID())
	}
	if _, ok := ledger.NewIndex(s).Expense(e.ID); ok {
		return ledger.ErrDuplicateID
	}
	s.Expenses = append(s.Expenses, e)
	return nil
}

type UpdateExpense struct {
	Expense ledger.Expense
}

func (UpdateExpense) CommandName() string { return "update_expense" }

func (c UpdateExpense) apply(s *ledger.Snapshot, _ *env) error {
	if err := validateExpense(c.Expense); err != nil {
		return err
	}
	i := indexOf(s.Expenses, func(e ledger.Expense) bool { return e.ID == c.Expense.ID })
	if i < 0 {
		return ledger.ErrExpenseNotFound
	}
	s.Expenses[i] = c.Expense
	return nil
}

type DeleteExpense struct {
	ID ledger.ExpenseID
}

func (DeleteExpense) CommandName() string { return "delete_expense" }

func (c DeleteExpense) apply(s *ledger.Snapshot, _ *env) error {
	i := indexOf(s.Expenses, func(e ledger.Expense) bool { return e.ID == c.ID })
	if i < 0 {
		return ledger.ErrExpenseNotFound
	}
	s.Expenses = append(s.Expenses[:i], s.Expenses[i+1:]...)
	return nil
}

// validateExpense allows an empty frequency on a recurring expense; the
// aggregator treats it as monthly.
func validateExpense(e ledger.Expense) error {
	if e.Amount.IsNegative() {
		return ledger.Invalid("amount", "must not be negative")
	}
	if e.Recurring && e.Frequency != "" && !e.Frequency.Valid() {
		return ledger.Invalid("frequency", "must be daily, weekly or monthly")
	}
	return nil
}

// =============================================================================
// WHOLE SNAPSHOT
// =============================================================================

// ReplaceSnapshot swaps in an externally built snapshot, keeping the version
// counter monotonic.
type ReplaceSnapshot struct {
	Snapshot *ledger.Snapshot
}

func (ReplaceSnapshot) CommandName() string { return "replace_snapshot" }

func (c ReplaceSnapshot) apply(s *ledger.Snapshot, _ *env) error {
	if c.Snapshot == nil {
		return ledger.Invalid("snapshot", "required")
	}
	version := s.Version
	*s = *c.Snapshot.Clone()
	s.Version = version
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func priceEntry(date ledger.TimePoint, p ledger.Product) ledger.PriceEntry {
	pkg, qty := p.PackageSize, p.Quantity
	return ledger.PriceEntry{Date: date, Price: p.Cost, PackageSize: &pkg, Quantity: &qty}
}

// inventoryFor returns the product's inventory item, creating it at the
// product's baseline if the snapshot has none. The pointer is into s and is
// invalidated by any later append to s.Inventory.
func inventoryFor(s *ledger.Snapshot, p *ledger.Product) *ledger.InventoryItem {
	for i := range s.Inventory {
		if s.Inventory[i].ProductID == p.ID {
			return &s.Inventory[i]
		}
	}
	s.Inventory = append(s.Inventory, ledger.InventoryItem{ProductID: p.ID, CurrentStock: p.Baseline()})
	return &s.Inventory[len(s.Inventory)-1]
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i, it := range items {
		if match(it) {
			return i
		}
	}
	return -1
}
