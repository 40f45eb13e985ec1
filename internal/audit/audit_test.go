package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) CreateAuditLog(ctx context.Context, arg db.CreateAuditLogParams) (db.AuditLog, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(db.AuditLog), args.Error(1)
}

type pet struct {
	Name      string  `json:"name"`
	Weight    float64 `json:"weight"`
	UpdatedAt string  `json:"updated_at"`
}

func TestDiff(t *testing.T) {
	changes, err := Diff(
		pet{Name: "Rex", Weight: 10, UpdatedAt: "a"},
		pet{Name: "Rex", Weight: 12.5, UpdatedAt: "b"},
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]Change{"weight": {Old: 10.0, New: 12.5}}, changes)
}

func TestDiff_CreateAndDelete(t *testing.T) {
	created, err := Diff(nil, pet{Name: "Rex"})
	require.NoError(t, err)
	assert.Equal(t, Change{Old: nil, New: "Rex"}, created["name"])

	deleted, err := Diff(pet{Name: "Rex"}, nil)
	require.NoError(t, err)
	assert.Equal(t, Change{Old: "Rex", New: nil}, deleted["name"])
}

func TestDiff_RejectsNonObject(t *testing.T) {
	_, err := Diff(nil, []string{"a"})
	assert.Error(t, err)
}

func TestRecord_WritesRow(t *testing.T) {
	w := &mockWriter{}
	r := NewRecorder(w)

	tenantID, actorID, entityID := uuid.New(), uuid.New(), uuid.New()
	w.On("CreateAuditLog", mock.Anything, mock.MatchedBy(func(arg db.CreateAuditLogParams) bool {
		var changes map[string]Change
		if err := json.Unmarshal(arg.Changes, &changes); err != nil {
			return false
		}
		return *arg.TenantID == tenantID &&
			*arg.ActorID == actorID &&
			*arg.EntityID == entityID &&
			arg.Action == ActionUpdate &&
			arg.EntityType == EntityPet &&
			arg.IpAddress.String == "10.0.0.1" &&
			!arg.UserAgent.Valid &&
			changes["name"].New == "Max"
	})).Return(db.AuditLog{}, nil).Once()

	r.Record(context.Background(), Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     ActionUpdate,
		EntityType: EntityPet,
		EntityID:   entityID,
		Before:     pet{Name: "Rex"},
		After:      pet{Name: "Max"},
		IPAddress:  "10.0.0.1",
	})
	w.AssertExpectations(t)
}

func TestRecord_SwallowsErrors(t *testing.T) {
	w := &mockWriter{}
	r := NewRecorder(w)
	w.On("CreateAuditLog", mock.Anything, mock.Anything).Return(db.AuditLog{}, errors.New("db down")).Once()

	assert.NotPanics(t, func() {
		r.Record(context.Background(), Entry{Action: ActionDelete, EntityType: EntityCustomer, Before: pet{Name: "x"}})
	})
	w.AssertExpectations(t)
}
