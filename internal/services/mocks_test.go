package services

import (
	"context"

	"artistry-hub/internal/services/khalti"
	"artistry-hub/internal/status"
	"artistry-hub/models"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) EventByID(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockStore) TicketFor(ctx context.Context, userID, eventID string) (*models.Ticket, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockStore) TicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockStore) IssueTicket(ctx context.Context, t *models.Ticket) (*models.Ticket, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockStore) SetRSVPStatus(ctx context.Context, ticketID, rsvpStatus string) error {
	args := m.Called(ctx, ticketID, rsvpStatus)
	return args.Error(0)
}

func (m *MockStore) SetAttended(ctx context.Context, ticketID string) error {
	args := m.Called(ctx, ticketID)
	return args.Error(0)
}

func (m *MockStore) ReviewByID(ctx context.Context, id string) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockStore) CreateReview(ctx context.Context, r *models.Review) (*models.Review, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockStore) DeleteReview(ctx context.Context, reviewID string) error {
	args := m.Called(ctx, reviewID)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Initiate(ctx context.Context, r *khalti.InitiateRequest) (*khalti.InitiateResponse, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*khalti.InitiateResponse), args.Error(1)
}

func (m *MockGateway) Lookup(ctx context.Context, pidx string) (*status.Transaction, error) {
	args := m.Called(ctx, pidx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*status.Transaction), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PaymentCompleted(userID, eventID, pidx string) {
	m.Called(userID, eventID, pidx)
}

func (m *MockNotifier) DiscussionPosted(d *models.Discussion) {
	m.Called(d)
}
