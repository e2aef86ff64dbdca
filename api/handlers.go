/*
handlers.go - HTTP API handlers for the cost ledger

PURPOSE:
  Exposes the ledger engine and the per-restaurant store over REST. Handles
  request parsing, validation, JSON serialization, and turns writes into
  store commands executed on the restaurant's session.

ENDPOINTS (all under /api/restaurants/{rid}):
  Snapshot:
    GET    /snapshot                 Whole snapshot
    PUT    /snapshot                 Replace the whole snapshot

  Products:
    GET    /products                 List with today's unit cost and stock
    POST   /products                 Create
    GET    /products/{id}            Product plus inventory item
    PUT    /products/{id}            Patch (cost edits may be backdated)
    DELETE /products/{id}            Delete
    GET    /products/{id}/timeline   Replayed stock timeline
    GET    /products/{id}/cost       Cost basis as of ?date=
    POST   /products/{id}/restocks   Record a delivery
    POST   /products/{id}/resets     Record a stocktake

  Recipes:
    GET    /recipes, POST /recipes, GET|PUT|DELETE /recipes/{id}
    GET    /recipes/{id}/cost        Serving cost breakdown as of ?date=

  Sales & expenses:
    GET    /sales, POST /sales
    GET    /expenses, POST /expenses, PUT|DELETE /expenses/{id}

  Reports:
    GET    /cogs/daily               ?from=&to=
    GET    /breakeven                ?period=&from=&to=&strict=
    GET    /anomalies                Negative stock and unmatched restocks

REQUEST FLOW:
  1. Resolve the restaurant session
  2. Decode and validate the body (writes) or read the snapshot (reads)
  3. Execute a store command, or call the engine on the snapshot
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed JSON, bad query parameters, domain validation
  - 404: Unknown product, recipe, expense or scenario
  - 409: Duplicate id
  - 422: Request body failed struct validation
  - 503: Session queue busy
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Scenario endpoints
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/cost-ledger/factory"
	"github.com/warp/cost-ledger/ledger"
	"github.com/warp/cost-ledger/store"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Hub *store.Hub
	// Runs is nil when the persister keeps no scan history.
	Runs store.ScanRecorder
	Log  zerolog.Logger
	// Strict makes report endpoints return warnings unless ?strict=false.
	Strict bool
}

// NewHandler creates a handler over the hub. Scan history is enabled when the
// persister implements store.ScanRecorder.
func NewHandler(hub *store.Hub, persister store.Persister, log zerolog.Logger, strict bool) *Handler {
	h := &Handler{Hub: hub, Log: log, Strict: strict}
	if runs, ok := persister.(store.ScanRecorder); ok {
		h.Runs = runs
	}
	return h
}

// =============================================================================
// SNAPSHOT HANDLERS
// =============================================================================

// GetSnapshot returns the restaurant's whole snapshot.
// GET /api/restaurants/{rid}/snapshot
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ReplaceSnapshot swaps in a snapshot built elsewhere.
// PUT /api/restaurants/{rid}/snapshot
func (h *Handler) ReplaceSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap ledger.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	next, ok := h.execute(w, r, store.ReplaceSnapshot{Snapshot: &snap})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, next)
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns every product with its cost and stock today.
// GET /api/restaurants/{rid}/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	idx := ledger.NewIndex(snap)
	today := ledger.Today()

	dtos := make([]ProductSummaryDTO, len(snap.Products))
	for i := range snap.Products {
		p := &snap.Products[i]
		rc := ledger.ResolveCostAsOf(p, today)
		dto := ProductSummaryDTO{
			ID:           p.ID,
			Name:         p.Name,
			Category:     p.Category,
			Unit:         p.Unit,
			Cost:         p.Cost,
			UnitCost:     rc.UnitCost,
			CostSource:   rc.Source,
			CurrentStock: p.Baseline(),
		}
		if item, ok := idx.Inventory(p.ID); ok {
			dto.CurrentStock = item.CurrentStock
		}
		dtos[i] = dto
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProduct adds a product and seeds its first price entry.
// POST /api/restaurants/{rid}/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	next, ok := h.execute(w, r, req.command())
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, next.Products[len(next.Products)-1])
}

// GetProduct returns one product with its inventory item.
// GET /api/restaurants/{rid}/products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	idx := ledger.NewIndex(snap)
	p, found := idx.Product(productID(r))
	if !found {
		writeDomainError(w, "Product not found", ledger.ErrProductNotFound)
		return
	}
	dto := ProductDetailDTO{Product: *p}
	if item, ok := idx.Inventory(p.ID); ok {
		dto.Inventory = item
	}
	writeJSON(w, http.StatusOK, dto)
}

// UpdateProduct patches a product. A cost change appends a price entry on
// the request's date; a quantity change appends a stock reset.
// PUT /api/restaurants/{rid}/products/{id}
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	next, ok := h.execute(w, r, req.command(productID(r)))
	if !ok {
		return
	}
	p, _ := ledger.NewIndex(next).Product(productID(r))
	writeJSON(w, http.StatusOK, p)
}

// DeleteProduct removes a product and its inventory item. Recipes that use
// it keep their ingredient lines, which then contribute zero cost.
// DELETE /api/restaurants/{rid}/products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.execute(w, r, store.DeleteProduct{ID: productID(r)}); !ok {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTimeline replays the product's stock history.
// GET /api/restaurants/{rid}/products/{id}/timeline
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	diag, ok := h.diagnostics(w, r)
	if !ok {
		return
	}
	tl, err := ledger.ReconstructTimeline(productID(r), snap, ledger.WithDiagnostics(diag))
	if err != nil {
		writeDomainError(w, "Failed to replay timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, TimelineResponse{
		Timeline:   tl,
		FinalStock: tl.Final(),
		Negative:   nonNil(tl.Anomalies()),
		Warnings:   strictWarnings(diag),
	})
}

// GetProductCost resolves the cost basis as of ?date= (default today).
// GET /api/restaurants/{rid}/products/{id}/cost
func (h *Handler) GetProductCost(w http.ResponseWriter, r *http.Request) {
	at, ok := dateParam(w, r, "date")
	if !ok {
		return
	}
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	diag, ok := h.diagnostics(w, r)
	if !ok {
		return
	}
	p, found := ledger.NewIndex(snap).Product(productID(r))
	if !found {
		writeDomainError(w, "Product not found", ledger.ErrProductNotFound)
		return
	}
	writeJSON(w, http.StatusOK, CostResponse{
		ProductID:    p.ID,
		Date:         at,
		ResolvedCost: ledger.ResolveCostAsOf(p, at, ledger.WithDiagnostics(diag)),
		Warnings:     strictWarnings(diag),
	})
}

// RecordRestock logs a delivery against the product.
// POST /api/restaurants/{rid}/products/{id}/restocks
func (h *Handler) RecordRestock(w http.ResponseWriter, r *http.Request) {
	var req RestockRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	next, ok := h.execute(w, r, store.RecordRestock{
		ProductID: productID(r),
		Date:      req.Date,
		Quantity:  req.Quantity,
		Cost:      req.Cost,
	})
	if !ok {
		return
	}
	item, _ := ledger.NewIndex(next).Inventory(productID(r))
	writeJSON(w, http.StatusCreated, item)
}

// RecordReset logs a stocktake.
// POST /api/restaurants/{rid}/products/{id}/resets
func (h *Handler) RecordReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	next, ok := h.execute(w, r, store.ResetStock{
		ProductID: productID(r),
		Date:      req.Date,
		Stock:     req.Stock,
		Info:      req.Info,
	})
	if !ok {
		return
	}
	item, _ := ledger.NewIndex(next).Inventory(productID(r))
	writeJSON(w, http.StatusCreated, item)
}

// =============================================================================
// RECIPE HANDLERS
// =============================================================================

// GET /api/restaurants/{rid}/recipes
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, nonNil(snap.Recipes))
}

// POST /api/restaurants/{rid}/recipes
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req RecipeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	next, ok := h.execute(w, r, store.AddRecipe{Recipe: req.recipe()})
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, next.Recipes[len(next.Recipes)-1])
}

// GET /api/restaurants/{rid}/recipes/{id}
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	recipe, found := ledger.NewIndex(snap).Recipe(recipeID(r))
	if !found {
		writeDomainError(w, "Recipe not found", ledger.ErrRecipeNotFound)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// UpdateRecipe replaces a recipe. The path id wins over any id in the body.
// PUT /api/restaurants/{rid}/recipes/{id}
func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	var req RecipeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	recipe := req.recipe()
	recipe.ID = recipeID(r)
	if _, ok := h.execute(w, r, store.UpdateRecipe{Recipe: recipe}); !ok {
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// DELETE /api/restaurants/{rid}/recipes/{id}
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.execute(w, r, store.DeleteRecipe{ID: recipeID(r)}); !ok {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRecipeCost breaks down one serving's cost as of ?date= (default today).
// GET /api/restaurants/{rid}/recipes/{id}/cost
func (h *Handler) GetRecipeCost(w http.ResponseWriter, r *http.Request) {
	at, ok := dateParam(w, r, "date")
	if !ok {
		return
	}
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	diag, ok := h.diagnostics(w, r)
	if !ok {
		return
	}
	recipe, found := ledger.NewIndex(snap).Recipe(recipeID(r))
	if !found {
		writeDomainError(w, "Recipe not found", ledger.ErrRecipeNotFound)
		return
	}
	sc := ledger.BreakdownServingCost(recipe, at, snap, ledger.WithDiagnostics(diag))
	writeJSON(w, http.StatusOK, RecipeCostResponse{
		ServingCost: sc,
		Price:       recipe.Price,
		Margin:      recipe.Price.Sub(sc.Total),
		Warnings:    strictWarnings(diag),
	})
}

// =============================================================================
// SALES HANDLERS
// =============================================================================

// ListSales returns sales, optionally limited to ?from= and ?to=.
// GET /api/restaurants/{rid}/sales
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	from, to, ok := rangeParams(w, r)
	if !ok {
		return
	}
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	sales := []ledger.SalesRecord{}
	for _, s := range snap.Sales {
		day := s.Date.Day()
		if !from.IsZero() && day.Before(from.Day()) {
			continue
		}
		if !to.IsZero() && day.After(to.Day()) {
			continue
		}
		sales = append(sales, s)
	}
	writeJSON(w, http.StatusOK, sales)
}

// RecordSale appends a sale and depletes its ingredients.
// POST /api/restaurants/{rid}/sales
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req SaleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	next, ok := h.execute(w, r, req.command())
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, next.Sales[len(next.Sales)-1])
}

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

// GET /api/restaurants/{rid}/expenses
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, nonNil(snap.Expenses))
}

// POST /api/restaurants/{rid}/expenses
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req ExpenseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	next, ok := h.execute(w, r, store.AddExpense{Expense: req.expense()})
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, next.Expenses[len(next.Expenses)-1])
}

// PUT /api/restaurants/{rid}/expenses/{id}
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req ExpenseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	e := req.expense()
	e.ID = ledger.ExpenseID(chi.URLParam(r, "id"))
	if _, ok := h.execute(w, r, store.UpdateExpense{Expense: e}); !ok {
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DELETE /api/restaurants/{rid}/expenses/{id}
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.execute(w, r, store.DeleteExpense{ID: ledger.ExpenseID(chi.URLParam(r, "id"))}); !ok {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetDailyCOGS groups sales by day, each costed as of its own date.
// GET /api/restaurants/{rid}/cogs/daily?from=&to=
func (h *Handler) GetDailyCOGS(w http.ResponseWriter, r *http.Request) {
	from, to, ok := rangeParams(w, r)
	if !ok {
		return
	}
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	diag, ok := h.diagnostics(w, r)
	if !ok {
		return
	}
	days := ledger.ComputeDailyCOGS(snap, ledger.WithRange(from, to), ledger.WithDiagnostics(diag))

	resp := DailyCOGSResponse{Days: nonNil(days), Total: decimal.Zero, Warnings: strictWarnings(diag)}
	for _, d := range days {
		resp.Total = resp.Total.Add(d.COGS)
	}
	if !from.IsZero() {
		resp.From = &from
	}
	if !to.IsZero() {
		resp.To = &to
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetBreakeven computes breakeven and profit for ?period= (default month).
// GET /api/restaurants/{rid}/breakeven?period=&from=&to=&strict=
func (h *Handler) GetBreakeven(w http.ResponseWriter, r *http.Request) {
	period := ledger.PeriodMonth
	if raw := r.URL.Query().Get("period"); raw != "" {
		p, err := ledger.ParsePeriod(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period", err)
			return
		}
		period = p
	}
	from, to, ok := rangeParams(w, r)
	if !ok {
		return
	}
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	diag, ok := h.diagnostics(w, r)
	if !ok {
		return
	}
	b, err := ledger.ComputeBreakeven(period, snap, ledger.WithRange(from, to), ledger.WithDiagnostics(diag))
	if err != nil {
		writeDomainError(w, "Failed to compute breakeven", err)
		return
	}
	writeJSON(w, http.StatusOK, BreakevenResponse{Breakeven: b, Warnings: strictWarnings(diag)})
}

// GetAnomalies replays every product and reports negative stock, restock
// records replay could not match, and every dropped reference.
// GET /api/restaurants/{rid}/anomalies
func (h *Handler) GetAnomalies(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ScanSnapshot(snap))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// Health reports liveness and the number of open sessions.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Sessions: len(h.Hub.List()),
		Time:     time.Now().UTC(),
	})
}

// ListScanRuns returns scan history, newest first.
// GET /api/scans?restaurant=&limit=
func (h *Handler) ListScanRuns(w http.ResponseWriter, r *http.Request) {
	if h.Runs == nil {
		writeJSON(w, http.StatusOK, []store.ScanRun{})
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}
	runs, err := h.Runs.ScanRuns(r.Context(), r.URL.Query().Get("restaurant"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list scan runs", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(runs))
}

// TriggerScan runs one anomaly scan over every known restaurant now.
// POST /api/scans
func (h *Handler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	scanner := NewAnomalyScanner(h.Hub, h.Runs, h.Log, 0)
	writeJSON(w, http.StatusOK, scanner.ScanOnce(r.Context()))
}

// =============================================================================
// HELPERS
// =============================================================================

var validate = validator.New()

func init() {
	// decimal.Decimal is a struct; register it as a number so gte/gt work
	validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// decodeAndValidate decodes the JSON body into dst and runs its validator
// tags. On failure it writes the response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, "Invalid request", err)
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Validation failed",
			Code:    "validation",
			Details: fields,
		})
		return false
	}
	return true
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request, restaurantID string) (*store.Session, bool) {
	sess, err := h.Hub.Session(r.Context(), restaurantID)
	if err != nil {
		writeDomainError(w, "Failed to open restaurant", err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) (*ledger.Snapshot, bool) {
	snap, err := h.Hub.Snapshot(r.Context(), chi.URLParam(r, "rid"))
	if err != nil {
		writeDomainError(w, "Failed to read restaurant", err)
		return nil, false
	}
	return snap, true
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request, cmd store.Command) (*ledger.Snapshot, bool) {
	return h.executeOn(w, r, chi.URLParam(r, "rid"), cmd)
}

// executeOn runs cmd on the restaurant's session. On failure it writes the
// error response and returns false.
func (h *Handler) executeOn(w http.ResponseWriter, r *http.Request, restaurantID string, cmd store.Command) (*ledger.Snapshot, bool) {
	sess, ok := h.session(w, r, restaurantID)
	if !ok {
		return nil, false
	}
	next, err := sess.Execute(r.Context(), cmd)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			h.Log.Error().Err(err).
				Str("restaurant", sess.RestaurantID()).
				Str("command", cmd.CommandName()).
				Msg("command failed")
		}
		writeDomainError(w, "Failed to "+cmd.CommandName(), err)
		return nil, false
	}
	return next, true
}

// diagnostics collects warnings for one request. ?strict= overrides the
// server default.
func (h *Handler) diagnostics(w http.ResponseWriter, r *http.Request) (*ledger.Diagnostics, bool) {
	strict := h.Strict
	if raw := r.URL.Query().Get("strict"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid strict flag", err)
			return nil, false
		}
		strict = v
	}
	return ledger.NewDiagnostics(strict), true
}

func strictWarnings(d *ledger.Diagnostics) []ledger.Warning {
	if d == nil || !d.Strict {
		return nil
	}
	return nonNil(d.Warnings())
}

// dateParam reads a date query parameter; absent means today.
func dateParam(w http.ResponseWriter, r *http.Request, name string) (ledger.TimePoint, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return ledger.Today(), true
	}
	tp, err := ledger.ParseTimePoint(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+name, err)
		return ledger.TimePoint{}, false
	}
	return tp, true
}

// rangeParams reads ?from= and ?to=; absent bounds come back zero (open).
func rangeParams(w http.ResponseWriter, r *http.Request) (from, to ledger.TimePoint, ok bool) {
	for _, p := range []struct {
		name string
		dst  *ledger.TimePoint
	}{{"from", &from}, {"to", &to}} {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue
		}
		tp, err := ledger.ParseTimePoint(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid "+p.name, err)
			return from, to, false
		}
		*p.dst = tp
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		writeError(w, http.StatusBadRequest, "Invalid range", errors.New("to is before from"))
		return from, to, false
	}
	return from, to, true
}

func productID(r *http.Request) ledger.ProductID { return ledger.ProductID(chi.URLParam(r, "id")) }
func recipeID(r *http.Request) ledger.RecipeID   { return ledger.RecipeID(chi.URLParam(r, "id")) }

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// statusFor maps domain and store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case ledger.IsNotFound(err), errors.Is(err, factory.ErrUnknownScenario):
		return http.StatusNotFound
	case ledger.IsConflict(err):
		return http.StatusConflict
	case ledger.IsClientError(err),
		errors.Is(err, store.ErrInvalidCommand),
		errors.Is(err, store.ErrInvalidRestaurant):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrSessionBusy):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}
