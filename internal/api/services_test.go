package api

import (
	"net/http"
	"testing"

	"github.com/pawdesk/pawdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	valid := map[string]int64{
		"0":        0,
		"45":       4500,
		"45.5":     4550,
		"45.50":    4550,
		" 12.34 ":  1234,
		"0.01":     1,
		"99999.99": 9999999,
	}
	for in, want := range valid {
		got, ok := parsePrice(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "abc", "-1", "1.234", "1e20", "12,50"} {
		_, ok := parsePrice(in)
		assert.False(t, ok, in)
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "0.00", formatPrice(0))
	assert.Equal(t, "45.50", formatPrice(4550))
	assert.Equal(t, "0.07", formatPrice(7))
}

func TestServer_Services(t *testing.T) {
	ts := newTestServer(t)

	tenant := ts.DB.NewTenant(t).Create()
	other := ts.DB.NewTenant(t).Create()
	admin := ts.DB.NewUser(t).In(tenant).AsTenantAdmin().Create()
	groomer := ts.DB.NewUser(t).In(tenant).AsStaff().Create()
	outsider := ts.DB.NewUser(t).In(other).AsTenantAdmin().Create()
	owner := ts.DB.NewUser(t).In(tenant).AsCustomer().Create()

	var serviceID string

	t.Run("admin creates a service with a decimal price", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.CreateService, testutil.Request{
			Method: http.MethodPost,
			Body: map[string]interface{}{
				"name":             "Puppy bath",
				"type":             "GROOMING",
				"duration_minutes": 30,
				"price":            "19.9",
			},
		})
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body)
		assert.Equal(t, "19.90", resp.Body["price"])
		assert.Equal(t, true, resp.Body["is_active"])
		serviceID = resp.Body["id"].(string)
	})

	t.Run("price with three decimals is rejected", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.CreateService, testutil.Request{
			Method: http.MethodPost,
			Body: map[string]interface{}{
				"name": "Odd", "type": "GROOMING", "duration_minutes": 30, "price": "1.999",
			},
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.CreateService, testutil.Request{
			Method: http.MethodPost,
			Body: map[string]interface{}{
				"name": "Spa", "type": "SPA", "duration_minutes": 30, "price": "10",
			},
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("staff can view but not change services", func(t *testing.T) {
		params := map[string]string{"id": serviceID}
		resp := testutil.As(t, groomer, ts.GetService, testutil.Request{Method: http.MethodGet, URLParams: params})
		assert.Equal(t, http.StatusOK, resp.Code)

		resp = testutil.As(t, groomer, ts.UpdateService, testutil.Request{
			Method: http.MethodPatch, URLParams: params, Body: map[string]interface{}{"price": "0"},
		})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("customers cannot list services", func(t *testing.T) {
		resp := testutil.As(t, owner, ts.ListServices, testutil.Request{Method: http.MethodGet})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("other tenants see not found", func(t *testing.T) {
		resp := testutil.As(t, outsider, ts.GetService, testutil.Request{Method: http.MethodGet, URLParams: map[string]string{"id": serviceID}})
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("deactivate then filter", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.UpdateService, testutil.Request{
			Method: http.MethodPatch, URLParams: map[string]string{"id": serviceID}, Body: map[string]interface{}{"is_active": false},
		})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "19.90", resp.Body["price"])

		resp = testutil.As(t, admin, ts.ListServices, testutil.Request{Method: http.MethodGet, QueryParams: map[string]string{"is_active": "true"}})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Empty(t, resp.Data())
	})
}
