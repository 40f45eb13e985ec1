package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/pawdesk/pawdesk/internal/audit"
	"github.com/pawdesk/pawdesk/internal/image"
	"github.com/pawdesk/pawdesk/internal/tenancy"
	"github.com/pawdesk/pawdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Settings(t *testing.T) {
	ts := newTestServer(t)

	tenant := ts.DB.NewTenant(t).WithName("Happy Paws").WithPlan(tenancy.PlanPro).Create()
	other := ts.DB.NewTenant(t).Create()
	admin := ts.DB.NewUser(t).In(tenant).AsTenantAdmin().Create()
	groomer := ts.DB.NewUser(t).In(tenant).AsStaff().Create()
	owner := ts.DB.NewUser(t).In(tenant).AsCustomer().Create()
	root := ts.DB.NewUser(t).AsSuperAdmin().Create()

	settingsOf := func(resp *testutil.Response) map[string]interface{} {
		return resp.Body["settings"].(map[string]interface{})
	}

	t.Run("admin reads own settings", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.GetSettings, testutil.Request{Method: http.MethodGet})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body)
		assert.Equal(t, tenant.ID.String(), resp.Body["tenant_id"])
		assert.Equal(t, "Happy Paws", settingsOf(resp)["business_name"])
		assert.Equal(t, "UTC", settingsOf(resp)["timezone"])
	})

	t.Run("staff and customers cannot read settings", func(t *testing.T) {
		for _, u := range []*testutil.TestUser{groomer, owner} {
			resp := testutil.As(t, u, ts.GetSettings, testutil.Request{Method: http.MethodGet})
			assert.Equal(t, http.StatusForbidden, resp.Code, u.Role)
			assert.Equal(t, "PERMISSION_DENIED", resp.ErrorCode())
		}
	})

	t.Run("update merges and audits", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.UpdateSettings, testutil.Request{
			Method: http.MethodPatch,
			Body: map[string]interface{}{
				"timezone": "Europe/Lisbon",
				"locale":   "pt",
				"branding": map[string]interface{}{"primary_color": "#ff8800"},
			},
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body)
		s := settingsOf(resp)
		assert.Equal(t, "Europe/Lisbon", s["timezone"])
		assert.Equal(t, "pt", s["locale"])
		assert.Equal(t, "Happy Paws", s["business_name"])

		require.NotEmpty(t, ts.Audit.Entries)
		last := ts.Audit.Entries[len(ts.Audit.Entries)-1]
		assert.Equal(t, audit.EntityTenant, last.EntityType)
		assert.Equal(t, tenant.ID, last.EntityID)

		resp = testutil.As(t, admin, ts.GetSettings, testutil.Request{Method: http.MethodGet})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "Europe/Lisbon", settingsOf(resp)["timezone"])
	})

	t.Run("renaming the business renames the tenant", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.UpdateSettings, testutil.Request{
			Method: http.MethodPatch,
			Body:   map[string]interface{}{"business_name": "Happier Paws"},
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body)

		row, err := ts.DB.Queries().GetTenantByID(t.Context(), tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, "Happier Paws", row.Name)
	})

	t.Run("invalid values are reported per field", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.UpdateSettings, testutil.Request{
			Method: http.MethodPatch,
			Body: map[string]interface{}{
				"timezone":       "Mars/Olympus",
				"locale":         "xx",
				"business_hours": map[string]interface{}{"MONDAY": map[string]interface{}{"open": "18:00", "close": "09:00"}},
			},
		})
		require.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "VALIDATION_ERROR", resp.ErrorCode())
		details := resp.Body["error"].(map[string]interface{})["details"].([]interface{})
		fields := make([]string, 0, len(details))
		for _, d := range details {
			fields = append(fields, d.(map[string]interface{})["field"].(string))
		}
		assert.ElementsMatch(t, []string{"timezone", "locale", "business_hours"}, fields)
	})

	t.Run("bad branding color is rejected", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.UpdateSettings, testutil.Request{
			Method: http.MethodPatch,
			Body:   map[string]interface{}{"branding": map[string]interface{}{"primary_color": "orange"}},
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("staff cannot update settings", func(t *testing.T) {
		resp := testutil.As(t, groomer, ts.UpdateSettings, testutil.Request{
			Method: http.MethodPatch,
			Body:   map[string]interface{}{"locale": "en"},
		})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("super admin targets a tenant with tenant_id", func(t *testing.T) {
		resp := testutil.As(t, root, ts.GetSettings, testutil.Request{Method: http.MethodGet})
		assert.Equal(t, http.StatusBadRequest, resp.Code)

		resp = testutil.As(t, root, ts.GetSettings, testutil.Request{
			Method: http.MethodGet, QueryParams: map[string]string{"tenant_id": other.ID.String()},
		})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, other.ID.String(), resp.Body["tenant_id"])

		resp = testutil.As(t, root, ts.GetSettings, testutil.Request{
			Method: http.MethodGet, QueryParams: map[string]string{"tenant_id": testutil.NewUUID().String()},
		})
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("subscription reflects the plan", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.GetSubscription, testutil.Request{Method: http.MethodGet})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, tenancy.PlanPro, resp.Body["plan"])
		assert.Equal(t, tenancy.StatusActive, resp.Body["status"])

		resp = testutil.As(t, groomer, ts.GetSubscription, testutil.Request{Method: http.MethodGet})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("tenant listing is super admin only", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.ListTenants, testutil.Request{Method: http.MethodGet})
		assert.Equal(t, http.StatusForbidden, resp.Code)

		resp = testutil.As(t, root, ts.ListTenants, testutil.Request{Method: http.MethodGet})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Len(t, resp.Data(), 2)
		assert.EqualValues(t, 2, resp.Body["meta"].(map[string]interface{})["total"])
	})
}

func TestServer_AnalyticsSummary(t *testing.T) {
	ts := newTestServer(t)
	db := ts.DB

	tenant := db.NewTenant(t).Create()
	other := db.NewTenant(t).Create()
	admin := db.NewUser(t).In(tenant).AsTenantAdmin().Create()
	groomer := db.NewUser(t).In(tenant).AsStaff().Create()
	db.CreateStaff(t, groomer)

	customer := db.NewCustomer(t, tenant).Create()
	pet := db.NewPet(t, customer).Create()
	service := db.NewService(t, tenant).Create()
	db.NewService(t, tenant).Inactive().Create()

	now := testutil.TimeNow()
	db.NewAppointment(t, pet, service).At(now.Add(24 * time.Hour)).Create()
	db.NewAppointment(t, pet, service).At(now.Add(48 * time.Hour)).WithStatus(StatusConfirmed).Create()
	db.NewAppointment(t, pet, service).At(now.Add(-72 * time.Hour)).WithStatus(StatusCompleted).Create()

	// Noise in another tenant.
	otherCustomer := db.NewCustomer(t, other).Create()
	db.NewAppointment(t, db.NewPet(t, otherCustomer).Create(), db.NewService(t, other).Create()).Create()

	t.Run("counts the tenant's records and zero-fills statuses", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.GetAnalyticsSummary, testutil.Request{Method: http.MethodGet})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body)
		assert.EqualValues(t, 1, resp.Body["customers"])
		assert.EqualValues(t, 1, resp.Body["pets"])
		assert.EqualValues(t, 1, resp.Body["active_services"])
		assert.EqualValues(t, 1, resp.Body["staff"])
		assert.EqualValues(t, 3, resp.Body["appointments_total"])

		byStatus := resp.Body["appointments_by_status"].(map[string]interface{})
		assert.Len(t, byStatus, 6)
		assert.EqualValues(t, 1, byStatus[StatusScheduled])
		assert.EqualValues(t, 1, byStatus[StatusConfirmed])
		assert.EqualValues(t, 1, byStatus[StatusCompleted])
		assert.EqualValues(t, 0, byStatus[StatusNoShow])
	})

	t.Run("date range bounds appointment counts", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.GetAnalyticsSummary, testutil.Request{
			Method: http.MethodGet,
			QueryParams: map[string]string{
				"from": now.Format(time.RFC3339),
				"to":   now.Add(36 * time.Hour).Format(time.RFC3339),
			},
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body)
		assert.EqualValues(t, 1, resp.Body["appointments_total"])
	})

	t.Run("inverted range is rejected", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.GetAnalyticsSummary, testutil.Request{
			Method: http.MethodGet,
			QueryParams: map[string]string{
				"from": now.Format(time.RFC3339),
				"to":   now.Add(-time.Hour).Format(time.RFC3339),
			},
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("malformed timestamp is rejected", func(t *testing.T) {
		resp := testutil.As(t, admin, ts.GetAnalyticsSummary, testutil.Request{
			Method: http.MethodGet, QueryParams: map[string]string{"from": "yesterday"},
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("staff have no analytics access", func(t *testing.T) {
		resp := testutil.As(t, groomer, ts.GetAnalyticsSummary, testutil.Request{Method: http.MethodGet})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestServer_AuditLogs(t *testing.T) {
	testDB := getSharedTestDatabase(t)
	server := NewServer(testDB, testutil.NewMockAuthService(t), testutil.NewMockStorage(t).AllowAll(),
		image.NewProcessor(1<<20), audit.NewRecorder(testDB.Queries()), tenancy.NewLocales("en", []string{"en"}))

	tenant := testDB.NewTenant(t).Create()
	other := testDB.NewTenant(t).Create()
	admin := testDB.NewUser(t).In(tenant).AsTenantAdmin().Create()
	outsider := testDB.NewUser(t).In(other).AsTenantAdmin().Create()
	groomer := testDB.NewUser(t).In(tenant).AsStaff().Create()

	resp := testutil.As(t, admin, server.CreateCustomer, testutil.Request{
		Method: http.MethodPost,
		Body:   map[string]interface{}{"first_name": "Rita", "last_name": "Costa"},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body)
	customerID := resp.Body["id"].(string)

	resp = testutil.As(t, admin, server.UpdateCustomer, testutil.Request{
		Method:    http.MethodPatch,
		URLParams: map[string]string{"id": customerID},
		Body:      map[string]interface{}{"notes": "prefers mornings"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body)

	resp = testutil.As(t, admin, server.CreateService, testutil.Request{
		Method: http.MethodPost,
		Body:   map[string]interface{}{"name": "Bath", "type": "GROOMING", "duration_minutes": 30, "price": "15.00"},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body)

	t.Run("lists the tenant's trail newest first", func(t *testing.T) {
		resp := testutil.As(t, admin, server.ListAuditLogs, testutil.Request{Method: http.MethodGet})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body)
		logs := resp.Data()
		require.Len(t, logs, 3)

		first := logs[0].(map[string]interface{})
		assert.Equal(t, audit.EntityService, first["entity_type"])
		assert.Equal(t, admin.ID.String(), first["actor_id"])
	})

	t.Run("filters by entity", func(t *testing.T) {
		resp := testutil.As(t, admin, server.ListAuditLogs, testutil.Request{
			Method:      http.MethodGet,
			QueryParams: map[string]string{"entity_type": audit.EntityCustomer, "entity_id": customerID},
		})
		require.Equal(t, http.StatusOK, resp.Code)
		logs := resp.Data()
		require.Len(t, logs, 2)

		update := logs[0].(map[string]interface{})
		assert.Equal(t, audit.ActionUpdate, update["action"])
		changes := update["changes"].(map[string]interface{})
		assert.Contains(t, changes, "notes")
		assert.NotContains(t, changes, "first_name")
	})

	t.Run("malformed entity id is rejected", func(t *testing.T) {
		resp := testutil.As(t, admin, server.ListAuditLogs, testutil.Request{
			Method: http.MethodGet, QueryParams: map[string]string{"entity_id": "nope"},
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("other tenants see nothing", func(t *testing.T) {
		resp := testutil.As(t, outsider, server.ListAuditLogs, testutil.Request{Method: http.MethodGet})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Empty(t, resp.Data())
	})

	t.Run("staff cannot read the trail", func(t *testing.T) {
		resp := testutil.As(t, groomer, server.ListAuditLogs, testutil.Request{Method: http.MethodGet})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}
