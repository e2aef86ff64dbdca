/*
Package factory turns YAML scenario documents into restaurant snapshots.

PURPOSE:
  Demo and fixture restaurants are written as YAML, not Go. The factory
  converts a document into store commands and replays them through the
  reducer, so a loaded scenario has exactly the histories the API would have
  produced: seeded price entries, stock entries for every sale and restock.

YAML SCHEMA:
  id: latte-bar
  name: Latte Bar
  description: Whole milk cost rises between two latte sales
  products:
    - id: milk
      name: Whole Milk
      unit: gallon
      package_size: 1
      quantity: 1
      cost: 4.00
      initial_quantity: 20
      date: "2024-01-01"
  recipes:
    - id: latte
      name: Latte
      price: 4.50
      ingredients:
        - product: milk
          quantity: 0.5
  expenses:
    - id: rent
      name: Rent
      amount: 1200
      recurring: true
      frequency: monthly
  events:                      # applied in document order
    - {type: sale, date: "2024-01-05", recipe: latte, quantity: 4}
    - {type: restock, date: "2024-01-10", product: milk, quantity: 12, cost: 4.20}
    - {type: reset, date: "2024-01-12", product: milk, stock: 7}
    - {type: price_change, date: "2024-01-08", product: milk, cost: 4.40}

  Dates are quoted so YAML keeps them as strings. Numbers are read as
  floats and converted with decimal.NewFromFloat.

USAGE:
  sc, err := factory.Builtin("latte-bar")
  snap, err := sc.Build(time.Now())

SEE ALSO:
  - store/commands.go: the commands each document entry becomes
  - scenarios/: built-in documents
*/
package factory

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"github.com/warp/cost-ledger/ledger"
	"github.com/warp/cost-ledger/store"
)

//go:embed scenarios/*.yaml
var builtin embed.FS

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

type ScenarioDoc struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Products    []ProductDoc `yaml:"products"`
	Recipes     []RecipeDoc  `yaml:"recipes"`
	Expenses    []ExpenseDoc `yaml:"expenses"`
	Events      []EventDoc   `yaml:"events"`
}

type ProductDoc struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	Category        string   `yaml:"category"`
	Unit            string   `yaml:"unit"`
	PackageSize     float64  `yaml:"package_size"`
	Quantity        float64  `yaml:"quantity"`
	Cost            float64  `yaml:"cost"`
	InitialQuantity *float64 `yaml:"initial_quantity"`
	Date            string   `yaml:"date"`
}

type RecipeDoc struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Category    string          `yaml:"category"`
	Price       float64         `yaml:"price"`
	Ingredients []IngredientDoc `yaml:"ingredients"`
}

type IngredientDoc struct {
	Product  string  `yaml:"product"`
	Quantity float64 `yaml:"quantity"`
	Unit     string  `yaml:"unit"`
}

type ExpenseDoc struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Category  string  `yaml:"category"`
	Amount    float64 `yaml:"amount"`
	Recurring bool    `yaml:"recurring"`
	Frequency string  `yaml:"frequency"`
}

// EventDoc is one dated history entry. Which fields matter depends on Type.
type EventDoc struct {
	Type     string  `yaml:"type"` // sale, restock, reset, price_change
	Date     string  `yaml:"date"`
	ID       string  `yaml:"id"`
	Product  string  `yaml:"product"`
	Recipe   string  `yaml:"recipe"`
	Quantity float64 `yaml:"quantity"`
	Cost     float64 `yaml:"cost"`
	Price    float64 `yaml:"price"`
	Stock    float64 `yaml:"stock"`
	Info     string  `yaml:"info"`
}

// =============================================================================
// SCENARIO
// =============================================================================

// Scenario is a parsed document, ready to build.
type Scenario struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Commands    []store.Command `json:"-"`
}

// ParseScenario parses a YAML document.
func ParseScenario(data []byte) (*Scenario, error) {
	var doc ScenarioDoc
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	return FromDoc(doc)
}

// FromDoc converts a document into commands. Entities come first, in the
// order products, recipes, expenses; then events in document order.
func FromDoc(doc ScenarioDoc) (*Scenario, error) {
	if doc.ID == "" {
		return nil, ledger.Invalid("id", "required")
	}
	sc := &Scenario{ID: doc.ID, Name: doc.Name, Description: doc.Description}

	for _, p := range doc.Products {
		date, err := parseDate(p.Date)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", p.ID, err)
		}
		product := ledger.Product{
			ID:          ledger.ProductID(p.ID),
			Name:        p.Name,
			Category:    p.Category,
			Unit:        p.Unit,
			PackageSize: dec(p.PackageSize),
			Quantity:    dec(p.Quantity),
			Cost:        dec(p.Cost),
		}
		if p.InitialQuantity != nil {
			v := dec(*p.InitialQuantity)
			product.InitialQuantity = &v
		}
		sc.Commands = append(sc.Commands, store.AddProduct{Product: product, Date: date})
	}

	for _, r := range doc.Recipes {
		recipe := ledger.Recipe{
			ID:       ledger.RecipeID(r.ID),
			Name:     r.Name,
			Category: r.Category,
			Price:    dec(r.Price),
		}
		for _, ing := range r.Ingredients {
			recipe.Ingredients = append(recipe.Ingredients, ledger.Ingredient{
				ProductID: ledger.ProductID(ing.Product),
				Quantity:  dec(ing.Quantity),
				Unit:      ing.Unit,
			})
		}
		sc.Commands = append(sc.Commands, store.AddRecipe{Recipe: recipe})
	}

	for _, e := range doc.Expenses {
		sc.Commands = append(sc.Commands, store.AddExpense{Expense: ledger.Expense{
			ID:        ledger.ExpenseID(e.ID),
			Name:      e.Name,
			Category:  e.Category,
			Amount:    dec(e.Amount),
			Recurring: e.Recurring,
			Frequency: ledger.Frequency(e.Frequency),
		}})
	}

	for i, ev := range doc.Events {
		cmd, err := eventCommand(ev)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		sc.Commands = append(sc.Commands, cmd)
	}
	return sc, nil
}

func eventCommand(ev EventDoc) (store.Command, error) {
	date, err := parseDate(ev.Date)
	if err != nil {
		return nil, err
	}
	switch ev.Type {
	case "sale":
		return store.RecordSale{Sale: ledger.SalesRecord{
			ID:       ledger.SaleID(ev.ID),
			RecipeID: ledger.RecipeID(ev.Recipe),
			Date:     date,
			Quantity: dec(ev.Quantity),
			Price:    dec(ev.Price),
		}}, nil
	case "restock":
		return store.RecordRestock{
			ProductID: ledger.ProductID(ev.Product),
			Date:      date,
			Quantity:  dec(ev.Quantity),
			Cost:      dec(ev.Cost),
		}, nil
	case "reset":
		return store.ResetStock{
			ProductID: ledger.ProductID(ev.Product),
			Date:      date,
			Stock:     dec(ev.Stock),
			Info:      ev.Info,
		}, nil
	case "price_change":
		cost := dec(ev.Cost)
		return store.UpdateProduct{ID: ledger.ProductID(ev.Product), Cost: &cost, Date: date}, nil
	}
	return nil, ledger.Invalid("type", fmt.Sprintf("unknown event type %q", ev.Type))
}

// Build replays the scenario's commands from an empty snapshot.
func (s *Scenario) Build(now time.Time) (*ledger.Snapshot, error) {
	snap := &ledger.Snapshot{}
	for i, cmd := range s.Commands {
		next, err := store.ApplyAt(snap, cmd, now)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: command %d (%s): %w", s.ID, i, cmd.CommandName(), err)
		}
		snap = next
	}
	return snap, nil
}

// =============================================================================
// BUILT-IN SCENARIOS
// =============================================================================

// Catalog lists the built-in scenarios, sorted by id.
func Catalog() ([]*Scenario, error) {
	entries, err := builtin.ReadDir("scenarios")
	if err != nil {
		return nil, err
	}
	var out []*Scenario
	for _, e := range entries {
		sc, err := readBuiltin(e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ErrUnknownScenario is returned by Builtin for ids with no document.
var ErrUnknownScenario = errors.New("unknown scenario")

func Builtin(id string) (*Scenario, error) {
	if id == "" || strings.ContainsAny(id, `/\.`) {
		return nil, ErrUnknownScenario
	}
	sc, err := readBuiltin(id + ".yaml")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrUnknownScenario
	}
	return sc, err
}

func readBuiltin(name string) (*Scenario, error) {
	data, err := builtin.ReadFile(path.Join("scenarios", name))
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

// =============================================================================
// HELPERS
// =============================================================================

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// parseDate allows an empty date, which the commands read as today.
func parseDate(s string) (ledger.TimePoint, error) {
	if s == "" {
		return ledger.TimePoint{}, nil
	}
	return ledger.ParseTimePoint(s)
}
