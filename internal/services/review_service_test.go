package services

import (
	"context"
	"testing"
	"time"

	"artistry-hub/internal/status"
	"artistry-hub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestReviewService(mockStore *MockStore, now time.Time) *ReviewService {
	service := NewReviewService(mockStore)
	service.now = func() time.Time { return now }
	return service
}

func endedEvent(now time.Time) *models.Event {
	return &models.Event{
		ID:        "evt1",
		Title:     "Poetry Slam",
		EndTime:   now.Add(-2 * time.Hour),
		CreatedBy: "org1",
	}
}

func TestCreateReview_RatingBounds(t *testing.T) {
	mockStore := &MockStore{}
	service := newTestReviewService(mockStore, time.Now())
	ctx := context.Background()

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := service.Create(ctx, "user1", "evt1", rating, "")
		assert.ErrorIs(t, err, status.ErrInvalidRating, "rating %d", rating)
	}
	mockStore.AssertNotCalled(t, "EventByID", mock.Anything, mock.Anything)
}

func TestCreateReview_EventNotEnded(t *testing.T) {
	now := time.Now()
	mockStore := &MockStore{}
	service := newTestReviewService(mockStore, now)
	ctx := context.Background()

	event := endedEvent(now)
	event.EndTime = now.Add(time.Hour)
	mockStore.On("EventByID", ctx, "evt1").Return(event, nil)

	_, err := service.Create(ctx, "user1", "evt1", 4, "great show")

	assert.ErrorIs(t, err, status.ErrEventNotEnded)
	mockStore.AssertNotCalled(t, "CreateReview", mock.Anything, mock.Anything)
}

func TestCreateReview_RequiresApprovedTicket(t *testing.T) {
	now := time.Now()
	mockStore := &MockStore{}
	service := newTestReviewService(mockStore, now)
	ctx := context.Background()

	mockStore.On("EventByID", ctx, "evt1").Return(endedEvent(now), nil)
	mockStore.On("TicketFor", ctx, "user1", "evt1").Return(&models.Ticket{
		ID:         "tkt1",
		RSVPStatus: models.RSVPPending,
	}, nil)

	_, err := service.Create(ctx, "user1", "evt1", 4, "great show")

	assert.ErrorIs(t, err, status.ErrNotTicketHolder)
}

func TestCreateReview_NoTicketAtAll(t *testing.T) {
	now := time.Now()
	mockStore := &MockStore{}
	service := newTestReviewService(mockStore, now)
	ctx := context.Background()

	mockStore.On("EventByID", ctx, "evt1").Return(endedEvent(now), nil)
	mockStore.On("TicketFor", ctx, "user1", "evt1").Return(nil, status.ErrTicketNotFound)

	_, err := service.Create(ctx, "user1", "evt1", 4, "great show")

	assert.ErrorIs(t, err, status.ErrNotTicketHolder)
}

func TestCreateReview_Success(t *testing.T) {
	now := time.Now()
	mockStore := &MockStore{}
	service := newTestReviewService(mockStore, now)
	ctx := context.Background()

	mockStore.On("EventByID", ctx, "evt1").Return(endedEvent(now), nil)
	mockStore.On("TicketFor", ctx, "user1", "evt1").Return(&models.Ticket{
		ID:         "tkt1",
		RSVPStatus: models.RSVPApproved,
	}, nil)
	mockStore.On("CreateReview", ctx, mock.AnythingOfType("*models.Review")).
		Return(&models.Review{
			ID:      "rev1",
			EventID: "evt1",
			UserID:  "user1",
			Rating:  4,
			Comment: "great show",
		}, nil)

	review, err := service.Create(ctx, "user1", "evt1", 4, "great show")

	require.NoError(t, err)
	assert.Equal(t, "rev1", review.ID)
	assert.Equal(t, 4, review.Rating)
}

func TestDeleteReview_OwnerAllowed(t *testing.T) {
	mockStore := &MockStore{}
	service := NewReviewService(mockStore)
	ctx := context.Background()

	mockStore.On("ReviewByID", ctx, "rev1").Return(&models.Review{
		ID:     "rev1",
		UserID: "user1",
	}, nil)
	mockStore.On("DeleteReview", ctx, "rev1").Return(nil)

	err := service.Delete(ctx, &models.User{ID: "user1", Role: models.RoleAttendee}, "rev1")

	require.NoError(t, err)
}

func TestDeleteReview_AdminAllowed(t *testing.T) {
	mockStore := &MockStore{}
	service := NewReviewService(mockStore)
	ctx := context.Background()

	mockStore.On("ReviewByID", ctx, "rev1").Return(&models.Review{
		ID:     "rev1",
		UserID: "user1",
	}, nil)
	mockStore.On("DeleteReview", ctx, "rev1").Return(nil)

	err := service.Delete(ctx, &models.User{ID: "admin1", Role: models.RoleAdmin}, "rev1")

	require.NoError(t, err)
}

func TestDeleteReview_StrangerForbidden(t *testing.T) {
	mockStore := &MockStore{}
	service := NewReviewService(mockStore)
	ctx := context.Background()

	mockStore.On("ReviewByID", ctx, "rev1").Return(&models.Review{
		ID:     "rev1",
		UserID: "user1",
	}, nil)

	err := service.Delete(ctx, &models.User{ID: "user2", Role: models.RoleAttendee}, "rev1")

	assert.ErrorIs(t, err, status.ErrNotOwner)
	mockStore.AssertNotCalled(t, "DeleteReview", mock.Anything, mock.Anything)
}
