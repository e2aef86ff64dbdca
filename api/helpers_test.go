package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cost-ledger/api"
	"github.com/warp/cost-ledger/store"
)

type testServer struct {
	t      *testing.T
	router http.Handler
	mem    *store.Memory
	hub    *store.Hub
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	mem := store.NewMemory()
	hub := store.NewHub(mem, zerolog.Nop())
	t.Cleanup(hub.Close)
	h := api.NewHandler(hub, mem, zerolog.Nop(), false)
	return &testServer{t: t, router: api.NewRouter(h, []string{"*"}), mem: mem, hub: hub}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// must performs the request and requires the given status.
func (s *testServer) must(status int, method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	rec := s.do(method, path, body)
	require.Equal(s.t, status, rec.Code, "%s %s: %s", method, path, rec.Body.String())
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "expected %s, got %s", want, got.String())
}

const bistro = "/api/restaurants/bistro"

// seedLatteBar builds the whole-milk latte walkthrough through the API:
// 20 gallons on hand, 4 lattes on Jan 5, 12 gallons delivered at $4.20 on
// Jan 10, 6 lattes on Jan 15, rent $1200/month.
func (s *testServer) seedLatteBar() {
	s.t.Helper()
	s.must(http.StatusCreated, "POST", bistro+"/products", map[string]any{
		"id": "milk", "name": "Whole Milk", "unit": "gallon",
		"packageSize": 1, "quantity": 1, "cost": 4, "initialQuantity": 20,
		"date": "2024-01-01",
	})
	s.must(http.StatusCreated, "POST", bistro+"/recipes", map[string]any{
		"id": "latte", "name": "Latte", "price": 4.5,
		"ingredients": []map[string]any{{"productId": "milk", "quantity": 0.5}},
	})
	s.must(http.StatusCreated, "POST", bistro+"/sales", map[string]any{
		"id": "s1", "recipeId": "latte", "date": "2024-01-05", "quantity": 4,
	})
	s.must(http.StatusCreated, "POST", bistro+"/products/milk/restocks", map[string]any{
		"date": "2024-01-10", "quantity": 12, "cost": 4.2,
	})
	s.must(http.StatusCreated, "POST", bistro+"/sales", map[string]any{
		"id": "s2", "recipeId": "latte", "date": "2024-01-15", "quantity": 6,
	})
	s.must(http.StatusCreated, "POST", bistro+"/expenses", map[string]any{
		"id": "rent", "category": "occupancy", "amount": 1200,
		"recurring": true, "frequency": "monthly",
	})
}
