/*
scenarios.go - Demo scenario endpoints

PURPOSE:
  Loads the built-in YAML scenarios (factory/scenarios/) into a restaurant so
  the API has realistic data to show: the latte bar walkthrough, a backdated
  price change, an oversold stocktake.

HOW LOADING WORKS:
 1. Look up the scenario by id
 2. Build its snapshot by replaying the scenario's commands from empty
 3. Replace the target restaurant's snapshot with the result

USAGE VIA API:

	POST /api/scenarios/load
	{"scenarioId": "latte-bar", "restaurantId": "demo"}

NOTE:

	Loading replaces everything the restaurant had. Only use on demo
	restaurants.

SEE ALSO:
  - factory/scenario.go: YAML schema and builder
  - handlers.go: ReplaceSnapshot (the same write, from a client-built snapshot)
*/
package api

import (
	"net/http"
	"time"

	"github.com/warp/cost-ledger/factory"
	"github.com/warp/cost-ledger/store"
)

// ListScenarios returns the built-in scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := factory.Catalog()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list scenarios", err)
		return
	}
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario replaces a restaurant's snapshot with a built-in scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.RestaurantID == "" {
		req.RestaurantID = req.ScenarioID
	}

	sc, err := factory.Builtin(req.ScenarioID)
	if err != nil {
		writeDomainError(w, "Unknown scenario", err)
		return
	}
	snap, err := sc.Build(time.Now())
	if err != nil {
		h.Log.Error().Err(err).Str("scenario", sc.ID).Msg("building scenario")
		writeError(w, http.StatusInternalServerError, "Failed to build scenario", err)
		return
	}

	next, ok := h.executeOn(w, r, req.RestaurantID, store.ReplaceSnapshot{Snapshot: snap})
	if !ok {
		return
	}
	h.Log.Info().Str("scenario", sc.ID).Str("restaurant", req.RestaurantID).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, LoadScenarioResponse{
		Scenario:     sc,
		RestaurantID: req.RestaurantID,
		Version:      next.Version,
	})
}
