/*
cogs.go - Cost of goods sold from resolved historical costs

PURPOSE:
  Prices every sale at the ingredient costs that were authoritative on the
  sale's date, then rolls sales up by calendar day.

RULES:
  costPerServing(recipe, date) = sum(unitCostAsOf(ingredient.product, date) x ingredient.qty)
  dailyCOGS(day)               = sum over that day's sales of costPerServing x servings

  A recipe ingredient whose product is missing adds zero. A sale whose recipe
  is missing adds zero COGS but still counts its revenue; the day it falls on
  still counts as a sale day.

SEE ALSO:
  - cost.go: unit cost resolution
  - breakeven.go: averaging over sale days
*/
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CostPerServing is the ingredient cost of one serving of recipe on saleDate.
func CostPerServing(recipe *Recipe, saleDate TimePoint, snap *Snapshot, opts ...Option) decimal.Decimal {
	return costPerServing(NewIndex(snap), recipe, saleDate, buildOptions(opts), opts)
}

func costPerServing(idx *Index, recipe *Recipe, saleDate TimePoint, o options, opts []Option) decimal.Decimal {
	total := decimal.Zero
	for _, ing := range recipe.Ingredients {
		p, ok := idx.Product(ing.ProductID)
		if !ok {
			o.diag.missingProduct(recipe, ing.ProductID, saleDate)
			continue
		}
		total = total.Add(UnitCostAsOf(p, saleDate, opts...).Mul(ing.Quantity))
	}
	return total
}

// IngredientCost is one line of a serving cost breakdown.
type IngredientCost struct {
	ProductID ProductID       `json:"productId"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unitCost"`
	Cost      decimal.Decimal `json:"cost"`
	Source    CostSource      `json:"source"`
	Missing   bool            `json:"missing,omitempty"`
}

// ServingCost is CostPerServing with the per-ingredient breakdown.
type ServingCost struct {
	RecipeID    RecipeID         `json:"recipeId"`
	Date        TimePoint        `json:"date"`
	Total       decimal.Decimal  `json:"total"`
	Ingredients []IngredientCost `json:"ingredients"`
}

// BreakdownServingCost explains CostPerServing line by line.
func BreakdownServingCost(recipe *Recipe, saleDate TimePoint, snap *Snapshot, opts ...Option) ServingCost {
	o := buildOptions(opts)
	idx := NewIndex(snap)
	sc := ServingCost{RecipeID: recipe.ID, Date: saleDate, Total: decimal.Zero}
	for _, ing := range recipe.Ingredients {
		p, ok := idx.Product(ing.ProductID)
		if !ok {
			o.diag.missingProduct(recipe, ing.ProductID, saleDate)
			sc.Ingredients = append(sc.Ingredients, IngredientCost{
				ProductID: ing.ProductID,
				Quantity:  ing.Quantity,
				UnitCost:  decimal.Zero,
				Cost:      decimal.Zero,
				Missing:   true,
			})
			continue
		}
		rc := ResolveCostAsOf(p, saleDate, opts...)
		cost := rc.UnitCost.Mul(ing.Quantity)
		sc.Total = sc.Total.Add(cost)
		sc.Ingredients = append(sc.Ingredients, IngredientCost{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  ing.Quantity,
			UnitCost:  rc.UnitCost,
			Cost:      cost,
			Source:    rc.Source,
		})
	}
	return sc
}

// =============================================================================
// DAILY COGS
// =============================================================================

type DailyCOGS struct {
	Date     TimePoint       `json:"date"`
	COGS     decimal.Decimal `json:"cogs"`
	Revenue  decimal.Decimal `json:"revenue"`
	Servings decimal.Decimal `json:"servings"`
	Sales    int             `json:"sales"`
}

// ComputeDailyCOGS groups sales by calendar day, ascending. Only days with
// at least one sale appear.
func ComputeDailyCOGS(snap *Snapshot, opts ...Option) []DailyCOGS {
	o := buildOptions(opts)
	idx := NewIndex(snap)

	byDay := make(map[string]*DailyCOGS)
	for _, sale := range idx.Snapshot().Sales {
		if !o.inRange(sale.Date) {
			continue
		}
		day := sale.Date.Day()
		key := day.String()
		d, ok := byDay[key]
		if !ok {
			d = &DailyCOGS{Date: day, COGS: decimal.Zero, Revenue: decimal.Zero, Servings: decimal.Zero}
			byDay[key] = d
		}
		d.Sales++
		d.Servings = d.Servings.Add(sale.Quantity)
		d.Revenue = d.Revenue.Add(sale.Revenue())

		recipe, ok := idx.RecipeForSale(sale)
		if !ok {
			o.diag.missingRecipe(sale)
			continue
		}
		perServing := costPerServing(idx, recipe, sale.Date, o, opts)
		d.COGS = d.COGS.Add(perServing.Mul(sale.Quantity))
	}

	days := make([]DailyCOGS, 0, len(byDay))
	for _, d := range byDay {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}
