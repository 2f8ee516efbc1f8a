package catalog_test

import (
	"errors"
	"testing"
	"time"

	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/catalog"
	"ms-marketplace/internal/catalog/db"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateEvent(event *models.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockDBLayer) GetEventByID(id string) (*models.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockDBLayer) UpdateEvent(event *models.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockDBLayer) ListEvents(filter db.ListFilter) ([]models.Event, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockDBLayer) CreateTicketType(ticketType *models.TicketType) error {
	args := m.Called(ticketType)
	return args.Error(0)
}

func (m *MockDBLayer) GetTicketTypeByID(id string) (*models.TicketType, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketType), args.Error(1)
}

func (m *MockDBLayer) GetTicketTypesByEvent(eventID string) ([]*models.TicketType, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TicketType), args.Error(1)
}

func (m *MockDBLayer) CreateBatch(batch *models.TicketBatch) error {
	args := m.Called(batch)
	return args.Error(0)
}

func (m *MockDBLayer) NextBatchSeq(ticketTypeID string) (int, error) {
	args := m.Called(ticketTypeID)
	return args.Int(0), args.Error(1)
}

func (m *MockDBLayer) GetBatchesByType(ticketTypeID string) ([]*models.TicketBatch, error) {
	args := m.Called(ticketTypeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TicketBatch), args.Error(1)
}

func newService() (*catalog.Service, *MockDBLayer) {
	mockDB := &MockDBLayer{}
	return catalog.NewService(mockDB, logger.NewLogger()), mockDB
}

func validEvent() *models.Event {
	return &models.Event{
		Title:        "Open Air",
		Date:         time.Now().AddDate(0, 1, 0),
		Location:     "Sao Paulo",
		Category:     "music",
		TotalTickets: 100,
	}
}

func TestCreateEventEntersPendingQueue(t *testing.T) {
	svc, mockDB := newService()
	event := validEvent()

	mockDB.On("CreateEvent", mock.Anything).Return(nil)

	require.NoError(t, svc.CreateEvent(event))
	assert.Equal(t, models.EventStatusPending, event.Status)
	assert.True(t, event.Visible)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, 100, event.AvailableTicket)
}

func TestCreateEventValidation(t *testing.T) {
	svc, _ := newService()

	cases := []struct {
		name   string
		mutate func(*models.Event)
		field  string
	}{
		{"missing title", func(e *models.Event) { e.Title = "" }, "title"},
		{"missing date", func(e *models.Event) { e.Date = time.Time{} }, "date"},
		{"missing location", func(e *models.Event) { e.Location = "" }, "location"},
		{"zero tickets", func(e *models.Event) { e.TotalTickets = 0 }, "total_tickets"},
		{"available over total", func(e *models.Event) { e.AvailableTicket = 200 }, "available_tickets"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event := validEvent()
			tc.mutate(event)

			err := svc.CreateEvent(event)
			require.Error(t, err)

			var vErr *catalog.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestAddTicketTypeRecomputesAggregates(t *testing.T) {
	svc, mockDB := newService()
	event := &models.Event{ID: "evt1", Title: "Open Air", TotalTickets: 10, AvailableTicket: 10}

	mockDB.On("GetEventByID", "evt1").Return(event, nil)
	mockDB.On("CreateTicketType", mock.Anything).Return(nil)
	mockDB.On("GetTicketTypesByEvent", "evt1").Return([]*models.TicketType{
		{PriceCents: 15000, TotalTickets: 400, AvailableTickets: 400},
		{PriceCents: 30000, TotalTickets: 100, AvailableTickets: 100},
	}, nil)
	mockDB.On("UpdateEvent", mock.Anything).Return(nil)

	tt := &models.TicketType{Name: "VIP", PriceCents: 30000, TotalTickets: 100}
	require.NoError(t, svc.AddTicketType("evt1", tt))

	assert.Equal(t, "evt1", tt.EventID)
	assert.Equal(t, 100, tt.AvailableTickets)
	// Event aggregates derive from the types: sum of totals, cheapest price
	assert.Equal(t, 500, event.TotalTickets)
	assert.Equal(t, 500, event.AvailableTicket)
	assert.Equal(t, int64(15000), event.PriceCents)
}

func TestAddBatchAppendsSequence(t *testing.T) {
	svc, mockDB := newService()
	tt := &models.TicketType{ID: "tt1", TotalTickets: 400}

	mockDB.On("GetTicketTypeByID", "tt1").Return(tt, nil)
	mockDB.On("NextBatchSeq", "tt1").Return(3, nil)
	mockDB.On("CreateBatch", mock.Anything).Return(nil)
	mockDB.On("GetBatchesByType", "tt1").Return([]*models.TicketBatch{
		{Quantity: 200}, {Quantity: 100}, {Quantity: 100},
	}, nil)

	now := time.Now()
	batch := &models.TicketBatch{Quantity: 100, StartsAt: now, EndsAt: now.Add(24 * time.Hour)}
	require.NoError(t, svc.AddBatch("tt1", batch))

	assert.Equal(t, 3, batch.Seq)
	assert.Equal(t, "Lote 3", batch.Name)
	assert.Equal(t, 100, batch.AvailableQuantity)
}

func TestAddBatchRejectsInvertedWindow(t *testing.T) {
	svc, _ := newService()

	now := time.Now()
	batch := &models.TicketBatch{Quantity: 100, StartsAt: now, EndsAt: now.Add(-time.Hour)}
	err := svc.AddBatch("tt1", batch)
	require.Error(t, err)

	var vErr *catalog.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "ends_at", vErr.Field)
}

func TestListEventsRoleVisibility(t *testing.T) {
	pending := models.Event{ID: "e1", OrganizerID: "org1", Status: models.EventStatusPending, Visible: true}
	approved := models.Event{ID: "e2", OrganizerID: "org2", Status: models.EventStatusApproved, Visible: true}
	rejected := models.Event{ID: "e3", OrganizerID: "org2", Status: models.EventStatusRejected, Visible: true}
	all := []models.Event{pending, approved, rejected}

	t.Run("public sees approved only", func(t *testing.T) {
		svc, mockDB := newService()
		mockDB.On("ListEvents", mock.Anything).Return(all, nil)

		events, err := svc.ListEvents(catalog.Filter{}, auth.Caller{Role: auth.RoleUser})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "e2", events[0].ID)
	})

	t.Run("organizer sees own pending too", func(t *testing.T) {
		svc, mockDB := newService()
		mockDB.On("ListEvents", mock.Anything).Return(all, nil)

		events, err := svc.ListEvents(catalog.Filter{}, auth.Caller{Role: auth.RoleOrganizer, OrganizerID: "org1"})
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		svc, mockDB := newService()
		mockDB.On("ListEvents", mock.Anything).Return(all, nil)

		events, err := svc.ListEvents(catalog.Filter{}, auth.Caller{Role: auth.RoleAdmin})
		require.NoError(t, err)
		assert.Len(t, events, 3)
	})
}

func TestGetEventHidesPendingFromPublic(t *testing.T) {
	svc, mockDB := newService()
	pending := &models.Event{ID: "e1", OrganizerID: "org1", Status: models.EventStatusPending, Visible: true}
	mockDB.On("GetEventByID", "e1").Return(pending, nil)

	_, err := svc.GetEvent("e1", auth.Caller{Role: auth.RoleUser})
	assert.Error(t, err)

	got, err := svc.GetEvent("e1", auth.Caller{Role: auth.RoleOrganizer, OrganizerID: "org1"})
	require.NoError(t, err)
	assert.Equal(t, "e1", got.ID)

	got, err = svc.GetEvent("e1", auth.Caller{Role: auth.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "e1", got.ID)
}

func TestGetEventOrphanPendingNotOwnedByAnyone(t *testing.T) {
	svc, mockDB := newService()
	// Seeded without an organizer; an empty OrganizerID on the caller must
	// not count as ownership
	orphan := &models.Event{ID: "e1", Status: models.EventStatusPending, Visible: true}
	mockDB.On("GetEventByID", "e1").Return(orphan, nil)

	_, err := svc.GetEvent("e1", auth.Caller{Role: auth.RoleUser})
	assert.Error(t, err)

	_, err = svc.GetEvent("e1", auth.Caller{Role: auth.RoleOrganizer})
	assert.Error(t, err)

	got, err := svc.GetEvent("e1", auth.Caller{Role: auth.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "e1", got.ID)
}
