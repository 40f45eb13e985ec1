package api

import (
	"net/http"
	"testing"

	"github.com/pawdesk/pawdesk/internal/audit"
	"github.com/pawdesk/pawdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Customers(t *testing.T) {
	ts := newTestServer(t)

	tenant := ts.DB.NewTenant(t).Create()
	other := ts.DB.NewTenant(t).Create()
	admin := ts.DB.NewUser(t).In(tenant).AsTenantAdmin().Create()
	groomer := ts.DB.NewUser(t).In(tenant).AsStaff().Create()
	outsider := ts.DB.NewUser(t).In(other).AsTenantAdmin().Create()
	owner := ts.DB.NewUser(t).In(tenant).AsCustomer().Create()
	root := ts.DB.NewUser(t).AsSuperAdmin().Create()

	var customerID string

	t.Run("admin creates a customer with default preferences", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.CreateCustomer, testutil.Request{
			Method: http.MethodPost,
			Body: map[string]interface{}{
				"first_name": "Ana",
				"last_name":  "Pereira",
				"email":      "ANA@Example.com",
				"address":    map[string]string{"city": "Porto", "country": "PT"},
			},
		})
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body)
		assert.Equal(t, "ana@example.com", resp.Body["email"])
		prefs := resp.Body["communication_preferences"].(map[string]interface{})
		assert.Equal(t, true, prefs["email"])
		assert.Equal(t, "EMAIL", prefs["preferred"])
		customerID = resp.Body["id"].(string)

		require.NotEmpty(t, ts.Audit.Entries)
		last := ts.Audit.Entries[len(ts.Audit.Entries)-1]
		assert.Equal(t, audit.EntityCustomer, last.EntityType)
		assert.Equal(t, tenant.ID, last.TenantID)
		assert.Equal(t, admin.ID, last.ActorID)
	})

	t.Run("names are required on create", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.CreateCustomer, testutil.Request{
			Method: http.MethodPost,
			Body:   map[string]interface{}{"email": "x@example.com"},
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("unknown preferred channel is rejected", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.CreateCustomer, testutil.Request{
			Method: http.MethodPost,
			Body: map[string]interface{}{
				"first_name": "A", "last_name": "B",
				"communication_preferences": map[string]interface{}{"email": true, "preferred": "PIGEON"},
			},
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("staff can view but not create", func(t *testing.T) {
		resp := testutil.As(t, groomer, ts.ListCustomers, testutil.Request{Method: http.MethodGet})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Len(t, resp.Data(), 1)

		resp = testutil.As(t, groomer, ts.CreateCustomer, testutil.Request{
			Method: http.MethodPost,
			Body:   map[string]interface{}{"first_name": "A", "last_name": "B"},
		})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("customers have no access to the customer list", func(t *testing.T) {
		resp := testutil.As(t, owner, ts.ListCustomers, testutil.Request{Method: http.MethodGet})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("search matches name and email", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.ListCustomers, testutil.Request{Method: http.MethodGet, QueryParams: map[string]string{"q": "perei"}})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Len(t, resp.Data(), 1)

		resp = testutil.As(t, admin, ts.ListCustomers, testutil.Request{Method: http.MethodGet, QueryParams: map[string]string{"q": "nobody"}})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Empty(t, resp.Data())
	})

	t.Run("other tenants cannot see or change the record", func(t *testing.T) {
		params := map[string]string{"id": customerID}

		resp := testutil.As(t, outsider, ts.GetCustomer, testutil.Request{Method: http.MethodGet, URLParams: params})
		assert.Equal(t, http.StatusNotFound, resp.Code)

		resp = testutil.As(t, outsider, ts.UpdateCustomer, testutil.Request{
			Method: http.MethodPatch, URLParams: params, Body: map[string]interface{}{"notes": "hijack"},
		})
		assert.Equal(t, http.StatusNotFound, resp.Code)

		resp = testutil.As(t, outsider, ts.ListCustomers, testutil.Request{Method: http.MethodGet})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Empty(t, resp.Data())
	})

	t.Run("super admin reaches any tenant with tenant_id", func(t *testing.T) {
		resp := testutil.As(t, root, ts.ListCustomers, testutil.Request{Method: http.MethodGet})
		assert.Equal(t, http.StatusBadRequest, resp.Code)

		resp = testutil.As(t, root, ts.ListCustomers, testutil.Request{Method: http.MethodGet, QueryParams: map[string]string{"tenant_id": tenant.ID.String()}})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Len(t, resp.Data(), 1)

		resp = testutil.As(t, root, ts.GetCustomer, testutil.Request{Method: http.MethodGet, URLParams: map[string]string{"id": customerID}})
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("non-super-admins cannot escape with tenant_id", func(t *testing.T) {
		resp := testutil.As(t, outsider, ts.ListCustomers, testutil.Request{Method: http.MethodGet, QueryParams: map[string]string{"tenant_id": tenant.ID.String()}})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Empty(t, resp.Data())
	})

	t.Run("patch merges fields", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.UpdateCustomer, testutil.Request{
			Method:    http.MethodPatch,
			URLParams: map[string]string{"id": customerID},
			Body:      map[string]interface{}{"phone": "+351 912 345 678"},
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body)
		assert.Equal(t, "Ana", resp.Body["first_name"])
		assert.Equal(t, "+351 912 345 678", resp.Body["phone"])
		assert.Equal(t, "Porto", resp.Body["address"].(map[string]interface{})["city"])
	})

	t.Run("soft delete hides the record", func(t *testing.T) {
		params := map[string]string{"id": customerID}
		resp := testutil.As(t, admin, ts.DeleteCustomer, testutil.Request{Method: http.MethodDelete, URLParams: params})
		require.Equal(t, http.StatusNoContent, resp.Code)

		resp = testutil.As(t, admin, ts.GetCustomer, testutil.Request{Method: http.MethodGet, URLParams: params})
		assert.Equal(t, http.StatusNotFound, resp.Code)

		resp = testutil.As(t, admin, ts.DeleteCustomer, testutil.Request{Method: http.MethodDelete, URLParams: params})
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}
