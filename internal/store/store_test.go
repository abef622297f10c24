package store

import (
	"context"
	"testing"

	"artistry-hub/internal/status"
	"artistry-hub/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore boots an embedded app with just the collections
// IssueTicket touches. Relations are plain text columns here; the store
// only ever reads them back as strings.
func setupTestStore(t *testing.T) (*tests.TestApp, *PB) {
	t.Helper()

	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	events := core.NewBaseCollection("events")
	events.Fields.Add(
		&core.TextField{Name: "title"},
		&core.NumberField{Name: "tickets_available", OnlyInt: true},
	)
	require.NoError(t, app.Save(events))

	tickets := core.NewBaseCollection("tickets")
	tickets.Fields.Add(
		&core.TextField{Name: "user", Required: true},
		&core.TextField{Name: "event", Required: true},
		&core.TextField{Name: "rsvp_status"},
		&core.TextField{Name: "status"},
		&core.BoolField{Name: "paid"},
		&core.TextField{Name: "payment_ref"},
		&core.TextField{Name: "checkin_hash"},
	)
	tickets.AddIndex("idx_test_tickets_user_event", true, "`user`, `event`", "")
	require.NoError(t, app.Save(tickets))

	return app, New(app)
}

func createTestEvent(t *testing.T, app *tests.TestApp, available int) string {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("events")
	require.NoError(t, err)

	rec := core.NewRecord(collection)
	rec.Set("title", "Test Event")
	rec.Set("tickets_available", available)
	require.NoError(t, app.Save(rec))

	return rec.Id
}

func availableFor(t *testing.T, app *tests.TestApp, eventID string) int {
	t.Helper()

	rec, err := app.FindRecordById("events", eventID)
	require.NoError(t, err)
	return rec.GetInt("tickets_available")
}

func TestIssueTicketDecrementsInventory(t *testing.T) {
	app, pb := setupTestStore(t)
	eventID := createTestEvent(t, app, 2)

	ticket, err := pb.IssueTicket(context.Background(), &models.Ticket{
		EventID:     eventID,
		UserID:      "user1",
		RSVPStatus:  models.RSVPApproved,
		Paid:        true,
		PaymentRef:  "pidx-1",
		CheckinHash: "hash-1",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, models.TicketBooked, ticket.Status)
	assert.Equal(t, "hash-1", ticket.CheckinHash)
	assert.Equal(t, 1, availableFor(t, app, eventID))
}

func TestIssueTicketSoldOutLeavesNoTicket(t *testing.T) {
	app, pb := setupTestStore(t)
	eventID := createTestEvent(t, app, 0)

	ticket, err := pb.IssueTicket(context.Background(), &models.Ticket{
		EventID:    eventID,
		UserID:     "user1",
		RSVPStatus: models.RSVPApproved,
	})

	assert.ErrorIs(t, err, status.ErrSoldOut)
	assert.Nil(t, ticket)
	assert.Equal(t, 0, availableFor(t, app, eventID))

	total, err := app.CountRecords("tickets")
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestIssueTicketDuplicateRollsBackDecrement(t *testing.T) {
	app, pb := setupTestStore(t)
	eventID := createTestEvent(t, app, 5)

	first, err := pb.IssueTicket(context.Background(), &models.Ticket{
		EventID:    eventID,
		UserID:     "user1",
		RSVPStatus: models.RSVPApproved,
	})
	require.NoError(t, err)
	require.Equal(t, 4, availableFor(t, app, eventID))

	second, err := pb.IssueTicket(context.Background(), &models.Ticket{
		EventID:    eventID,
		UserID:     "user1",
		RSVPStatus: models.RSVPApproved,
	})

	assert.ErrorIs(t, err, status.ErrAlreadyTicketed)
	assert.Nil(t, second)
	// The failed attempt's decrement must not stick.
	assert.Equal(t, 4, availableFor(t, app, eventID))

	existing, err := pb.TicketFor(context.Background(), "user1", eventID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, existing.ID)
}

func TestIssueTicketInventoryNeverGoesNegative(t *testing.T) {
	app, pb := setupTestStore(t)
	eventID := createTestEvent(t, app, 1)

	_, err := pb.IssueTicket(context.Background(), &models.Ticket{
		EventID:    eventID,
		UserID:     "user1",
		RSVPStatus: models.RSVPApproved,
	})
	require.NoError(t, err)
	require.Equal(t, 0, availableFor(t, app, eventID))

	_, err = pb.IssueTicket(context.Background(), &models.Ticket{
		EventID:    eventID,
		UserID:     "user2",
		RSVPStatus: models.RSVPApproved,
	})

	assert.ErrorIs(t, err, status.ErrSoldOut)
	assert.Equal(t, 0, availableFor(t, app, eventID))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(context.Canceled))
	assert.True(t, IsUniqueViolation(errString("UNIQUE constraint failed: tickets.user")))
	assert.True(t, IsUniqueViolation(errString("user: Value must be unique.")))
	assert.True(t, IsUniqueViolation(errString("validation_not_unique")))
}

type errString string

func (e errString) Error() string { return string(e) }
