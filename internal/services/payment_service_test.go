package services

import (
	"context"
	"testing"
	"time"

	"artistry-hub/config"
	"artistry-hub/internal/services/khalti"
	"artistry-hub/internal/status"
	"artistry-hub/models"
	"artistry-hub/utils"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestPaymentService() (*PaymentService, redismock.ClientMock, *MockStore, *MockGateway, *MockNotifier) {
	db, redisMock := redismock.NewClientMock()
	redisMock.MatchExpectationsInOrder(false)

	mockStore := &MockStore{}
	mockGateway := &MockGateway{}
	mockNotifier := &MockNotifier{}

	cfg := &config.Config{
		PublicURL:         "http://localhost:8090",
		FrontendURL:       "http://localhost:5173",
		WebsiteURL:        "http://localhost:5173",
		PaymentSessionTTL: 30 * time.Minute,
	}

	service := NewPaymentService(db, mockStore, mockGateway, mockNotifier, cfg)
	return service, redisMock, mockStore, mockGateway, mockNotifier
}

func paidEvent() *models.Event {
	return &models.Event{
		ID:               "evt1",
		Title:            "Jazz Night",
		TicketQuantity:   100,
		TicketsAvailable: 10,
		TicketPrice:      decimal.NewFromInt(500), // NPR, 50000 paisa
		CreatedBy:        "org1",
	}
}

func TestQuote_FreeEvent(t *testing.T) {
	service, _, mockStore, _, _ := setupTestPaymentService()
	ctx := context.Background()

	event := paidEvent()
	event.TicketPrice = decimal.Zero
	mockStore.On("EventByID", ctx, "evt1").Return(event, nil)

	_, err := service.Quote(ctx, "user1", "evt1")

	assert.ErrorIs(t, err, status.ErrFreeEvent)
}

func TestQuote_SoldOut(t *testing.T) {
	service, _, mockStore, _, _ := setupTestPaymentService()
	ctx := context.Background()

	event := paidEvent()
	event.TicketsAvailable = 0
	mockStore.On("EventByID", ctx, "evt1").Return(event, nil)

	_, err := service.Quote(ctx, "user1", "evt1")

	assert.ErrorIs(t, err, status.ErrSoldOut)
}

func TestQuote_AlreadyTicketed(t *testing.T) {
	service, _, mockStore, _, _ := setupTestPaymentService()
	ctx := context.Background()

	mockStore.On("EventByID", ctx, "evt1").Return(paidEvent(), nil)
	mockStore.On("TicketFor", ctx, "user1", "evt1").Return(&models.Ticket{ID: "tkt1"}, nil)

	_, err := service.Quote(ctx, "user1", "evt1")

	assert.ErrorIs(t, err, status.ErrAlreadyTicketed)
}

func TestQuote_Success(t *testing.T) {
	service, _, mockStore, _, _ := setupTestPaymentService()
	ctx := context.Background()

	mockStore.On("EventByID", ctx, "evt1").Return(paidEvent(), nil)
	mockStore.On("TicketFor", ctx, "user1", "evt1").Return(nil, status.ErrTicketNotFound)

	quote, err := service.Quote(ctx, "user1", "evt1")

	require.NoError(t, err)
	assert.Equal(t, int64(50000), quote.AmountPaisa)
	assert.Equal(t, "Jazz Night", quote.EventTitle)
}

func TestCreateSession_AmountMismatch(t *testing.T) {
	service, _, mockStore, mockGateway, _ := setupTestPaymentService()
	ctx := context.Background()

	mockStore.On("EventByID", ctx, "evt1").Return(paidEvent(), nil)
	mockStore.On("TicketFor", ctx, "user1", "evt1").Return(nil, status.ErrTicketNotFound)

	user := &models.User{ID: "user1", Name: "Asha", Email: "asha@example.com"}
	_, err := service.CreateSession(ctx, user, "evt1", 49999)

	assert.ErrorIs(t, err, status.ErrAmountMismatch)
	mockGateway.AssertNotCalled(t, "Initiate", mock.Anything, mock.Anything)
}

func TestCreateSession_Success(t *testing.T) {
	service, _, mockStore, mockGateway, _ := setupTestPaymentService()
	ctx := context.Background()

	mockStore.On("EventByID", ctx, "evt1").Return(paidEvent(), nil)
	mockStore.On("TicketFor", ctx, "user1", "evt1").Return(nil, status.ErrTicketNotFound)

	var sent *khalti.InitiateRequest
	mockGateway.On("Initiate", ctx, mock.AnythingOfType("*khalti.InitiateRequest")).
		Run(func(args mock.Arguments) {
			sent = args.Get(1).(*khalti.InitiateRequest)
		}).
		Return(&khalti.InitiateResponse{
			Pidx:       "px1",
			PaymentURL: "https://pay.example.com/px1",
		}, nil)

	user := &models.User{ID: "user1", Name: "Asha", Email: "asha@example.com"}
	resp, err := service.CreateSession(ctx, user, "evt1", 50000)

	require.NoError(t, err)
	assert.Equal(t, "px1", resp.Pidx)

	// The (user, event) identity must ride all three carriers.
	require.NotNil(t, sent)
	uid, eid, ok := parseOrderID(sent.PurchaseOrderID)
	require.True(t, ok)
	assert.Equal(t, "user1", uid)
	assert.Equal(t, "evt1", eid)
	uid, eid, ok = parseMerchantExtra(sent.MerchantExtra)
	require.True(t, ok)
	assert.Equal(t, "user1", uid)
	assert.Equal(t, "evt1", eid)
	assert.Contains(t, sent.ReturnURL, "uid=user1")
	assert.Contains(t, sent.ReturnURL, "eid=evt1")
	assert.True(t, sent.Amount.Equal(decimal.NewFromInt(50000)))
}

func TestHandleCallback_Cancelled(t *testing.T) {
	service, redisMock, _, mockGateway, _ := setupTestPaymentService()
	ctx := context.Background()

	redisMock.ExpectHSet("payment:px1", "status", "cancelled").SetVal(1)

	result := service.HandleCallback(ctx, &models.CallbackParams{
		Pidx:   "px1",
		Status: status.StatusUserCanceled,
	})

	assert.Equal(t, "cancelled", result.Outcome)
	mockGateway.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandleCallback_LookupFails(t *testing.T) {
	service, _, mockStore, mockGateway, _ := setupTestPaymentService()
	ctx := context.Background()

	mockGateway.On("Lookup", ctx, "px1").Return(nil, status.ErrVerificationFailed)

	result := service.HandleCallback(ctx, &models.CallbackParams{Pidx: "px1"})

	assert.Equal(t, "error", result.Outcome)
	mockStore.AssertNotCalled(t, "IssueTicket", mock.Anything, mock.Anything)
}

func TestHandleCallback_NotCompleted(t *testing.T) {
	service, _, mockStore, mockGateway, _ := setupTestPaymentService()
	ctx := context.Background()

	mockGateway.On("Lookup", ctx, "px1").Return(&status.Transaction{
		Pidx:        "px1",
		Status:      status.StatusPending,
		TotalAmount: decimal.NewFromInt(50000),
	}, nil)

	result := service.HandleCallback(ctx, &models.CallbackParams{Pidx: "px1"})

	assert.Equal(t, "error", result.Outcome)
	assert.Contains(t, result.Message, "Pending")
	mockStore.AssertNotCalled(t, "IssueTicket", mock.Anything, mock.Anything)
}

func TestHandleCallback_UnresolvableIdentity(t *testing.T) {
	service, _, mockStore, mockGateway, _ := setupTestPaymentService()
	ctx := context.Background()

	mockGateway.On("Lookup", ctx, "px1").Return(&status.Transaction{
		Pidx:        "px1",
		Status:      status.StatusCompleted,
		TotalAmount: decimal.NewFromInt(50000),
	}, nil)

	// Completed payment, but no identity carrier survived. Fail closed.
	result := service.HandleCallback(ctx, &models.CallbackParams{Pidx: "px1"})

	assert.Equal(t, "error", result.Outcome)
	assert.Contains(t, result.Message, "contact support")
	mockStore.AssertNotCalled(t, "EventByID", mock.Anything, mock.Anything)
	mockStore.AssertNotCalled(t, "IssueTicket", mock.Anything, mock.Anything)
}

func TestHandleCallback_MetadataOnlyIdentity(t *testing.T) {
	service, _, mockStore, mockGateway, mockNotifier := setupTestPaymentService()
	ctx := context.Background()

	mockGateway.On("Lookup", ctx, "px1").Return(&status.Transaction{
		Pidx:        "px1",
		Status:      status.StatusCompleted,
		TotalAmount: decimal.NewFromInt(50000),
	}, nil)
	mockStore.On("EventByID", ctx, "evt1").Return(paidEvent(), nil)
	mockStore.On("TicketFor", ctx, "user1", "evt1").Return(nil, status.ErrTicketNotFound)
	mockStore.On("IssueTicket", ctx, mock.AnythingOfType("*models.Ticket")).
		Return(&models.Ticket{
			ID:         "tkt1",
			EventID:    "evt1",
			UserID:     "user1",
			RSVPStatus: models.RSVPApproved,
			Paid:       true,
		}, nil)
	mockNotifier.On("PaymentCompleted", "user1", "evt1", "px1").Return()

	// Order id lost in transit, only the echoed metadata carries identity.
	result := service.HandleCallback(ctx, &models.CallbackParams{
		Pidx:          "px1",
		Status:        status.StatusCompleted,
		MerchantExtra: BuildMerchantExtra("user1", "evt1"),
	})

	assert.Equal(t, "success", result.Outcome)
	assert.Equal(t, "tkt1", result.TicketID)
	mockNotifier.AssertCalled(t, "PaymentCompleted", "user1", "evt1", "px1")
}

func TestHandleCallback_DuplicateDelivery(t *testing.T) {
	service, _, mockStore, mockGateway, mockNotifier := setupTestPaymentService()
	ctx := context.Background()

	mockGateway.On("Lookup", ctx, "px1").Return(&status.Transaction{
		Pidx:        "px1",
		Status:      status.StatusCompleted,
		TotalAmount: decimal.NewFromInt(50000),
	}, nil)
	mockStore.On("EventByID", ctx, "evt1").Return(paidEvent(), nil)
	mockStore.On("TicketFor", ctx, "user1", "evt1").Return(&models.Ticket{
		ID:         "tkt1",
		EventID:    "evt1",
		UserID:     "user1",
		RSVPStatus: models.RSVPApproved,
		Paid:       true,
	}, nil)
	mockNotifier.On("PaymentCompleted", "user1", "evt1", "px1").Return()

	params := &models.CallbackParams{
		Pidx:            "px1",
		PurchaseOrderID: BuildOrderID("user1", "evt1", "ABCD1234"),
	}

	first := service.HandleCallback(ctx, params)
	second := service.HandleCallback(ctx, params)

	// Both deliveries report success against the same ticket; nothing is
	// created twice.
	assert.Equal(t, "success", first.Outcome)
	assert.Equal(t, "success", second.Outcome)
	assert.Equal(t, first.TicketID, second.TicketID)
	// An existing ticket carries no fresh code to hand out.
	assert.Empty(t, second.CheckinCode)
	mockStore.AssertNotCalled(t, "IssueTicket", mock.Anything, mock.Anything)
}

func TestHandleCallback_IssuesCheckinCode(t *testing.T) {
	service, _, mockStore, mockGateway, mockNotifier := setupTestPaymentService()
	ctx := context.Background()

	mockGateway.On("Lookup", ctx, "px1").Return(&status.Transaction{
		Pidx:        "px1",
		Status:      status.StatusCompleted,
		TotalAmount: decimal.NewFromInt(50000),
	}, nil)
	mockStore.On("EventByID", ctx, "evt1").Return(paidEvent(), nil)
	mockStore.On("TicketFor", ctx, "user1", "evt1").Return(nil, status.ErrTicketNotFound)

	var issued *models.Ticket
	mockStore.On("IssueTicket", ctx, mock.AnythingOfType("*models.Ticket")).
		Run(func(args mock.Arguments) {
			issued = args.Get(1).(*models.Ticket)
		}).
		Return(&models.Ticket{ID: "tkt1", EventID: "evt1", UserID: "user1"}, nil)
	mockNotifier.On("PaymentCompleted", "user1", "evt1", "px1").Return()

	result := service.HandleCallback(ctx, &models.CallbackParams{
		Pidx:            "px1",
		PurchaseOrderID: BuildOrderID("user1", "evt1", "ABCD1234"),
	})

	require.Equal(t, "success", result.Outcome)
	require.NotNil(t, issued)
	// The ticket is stored with a hash and the matching raw code goes
	// back on this delivery only.
	assert.NotEmpty(t, issued.CheckinHash)
	require.NotEmpty(t, result.CheckinCode)
	assert.True(t, utils.VerifyCheckinCode(issued.CheckinHash, result.CheckinCode))
}

func TestHandleCallback_LosesIssueRace(t *testing.T) {
	service, _, mockStore, mockGateway, mockNotifier := setupTestPaymentService()
	ctx := context.Background()

	mockGateway.On("Lookup", ctx, "px1").Return(&status.Transaction{
		Pidx:        "px1",
		Status:      status.StatusCompleted,
		TotalAmount: decimal.NewFromInt(50000),
	}, nil)
	mockStore.On("EventByID", ctx, "evt1").Return(paidEvent(), nil)

	// Nothing exists on the first look, but a concurrent delivery wins
	// the insert between the check and our create.
	mockStore.On("TicketFor", ctx, "user1", "evt1").
		Return(nil, status.ErrTicketNotFound).Once()
	mockStore.On("IssueTicket", ctx, mock.AnythingOfType("*models.Ticket")).
		Return(nil, status.ErrAlreadyTicketed)
	mockStore.On("TicketFor", ctx, "user1", "evt1").Return(&models.Ticket{
		ID:         "tkt1",
		EventID:    "evt1",
		UserID:     "user1",
		RSVPStatus: models.RSVPApproved,
		Paid:       true,
	}, nil)
	mockNotifier.On("PaymentCompleted", "user1", "evt1", "px1").Return()

	result := service.HandleCallback(ctx, &models.CallbackParams{
		Pidx:            "px1",
		PurchaseOrderID: BuildOrderID("user1", "evt1", "ABCD1234"),
	})

	assert.Equal(t, "success", result.Outcome)
	assert.Equal(t, "tkt1", result.TicketID)
	// The winning delivery handed out the code; this one has none.
	assert.Empty(t, result.CheckinCode)
	mockNotifier.AssertCalled(t, "PaymentCompleted", "user1", "evt1", "px1")
}

func TestHandleCallback_AmountMismatch(t *testing.T) {
	service, _, mockStore, mockGateway, _ := setupTestPaymentService()
	ctx := context.Background()

	mockGateway.On("Lookup", ctx, "px1").Return(&status.Transaction{
		Pidx:        "px1",
		Status:      status.StatusCompleted,
		TotalAmount: decimal.NewFromInt(49999),
	}, nil)
	mockStore.On("EventByID", ctx, "evt1").Return(paidEvent(), nil)

	result := service.HandleCallback(ctx, &models.CallbackParams{
		Pidx:            "px1",
		PurchaseOrderID: BuildOrderID("user1", "evt1", "ABCD1234"),
	})

	assert.Equal(t, "error", result.Outcome)
	mockStore.AssertNotCalled(t, "IssueTicket", mock.Anything, mock.Anything)
}

func TestHandleCallback_HealsPendingTicket(t *testing.T) {
	service, _, mockStore, mockGateway, mockNotifier := setupTestPaymentService()
	ctx := context.Background()

	mockGateway.On("Lookup", ctx, "px1").Return(&status.Transaction{
		Pidx:        "px1",
		Status:      status.StatusCompleted,
		TotalAmount: decimal.NewFromInt(50000),
	}, nil)
	mockStore.On("EventByID", ctx, "evt1").Return(paidEvent(), nil)
	mockStore.On("TicketFor", ctx, "user1", "evt1").Return(&models.Ticket{
		ID:         "tkt1",
		EventID:    "evt1",
		UserID:     "user1",
		RSVPStatus: models.RSVPPending,
	}, nil)
	mockStore.On("SetRSVPStatus", ctx, "tkt1", models.RSVPApproved).Return(nil)
	mockNotifier.On("PaymentCompleted", "user1", "evt1", "px1").Return()

	result := service.HandleCallback(ctx, &models.CallbackParams{
		Pidx:            "px1",
		PurchaseOrderID: BuildOrderID("user1", "evt1", "ABCD1234"),
	})

	assert.Equal(t, "success", result.Outcome)
	mockStore.AssertCalled(t, "SetRSVPStatus", ctx, "tkt1", models.RSVPApproved)
}

func TestStatus_NoTicket(t *testing.T) {
	service, _, mockStore, _, _ := setupTestPaymentService()
	ctx := context.Background()

	mockStore.On("TicketFor", ctx, "user1", "evt1").Return(nil, status.ErrTicketNotFound)

	st, err := service.Status(ctx, "user1", "evt1")

	require.NoError(t, err)
	assert.False(t, st.Exists)
}

func TestStatus_TicketExists(t *testing.T) {
	service, _, mockStore, _, _ := setupTestPaymentService()
	ctx := context.Background()

	mockStore.On("TicketFor", ctx, "user1", "evt1").Return(&models.Ticket{
		ID:         "tkt1",
		RSVPStatus: models.RSVPApproved,
		Status:     models.TicketBooked,
		Paid:       true,
	}, nil)

	st, err := service.Status(ctx, "user1", "evt1")

	require.NoError(t, err)
	assert.True(t, st.Exists)
	assert.Equal(t, "tkt1", st.TicketID)
	assert.True(t, st.Paid)
}
