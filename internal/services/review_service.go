package services

import (
	"context"
	"time"

	"artistry-hub/internal/status"
	"artistry-hub/models"
)

// ReviewService gates review creation: only ticket holders, only after
// the event ends, one review per (user, event).
type ReviewService struct {
	store Store
	now   func() time.Time
}

func NewReviewService(st Store) *ReviewService {
	return &ReviewService{store: st, now: time.Now}
}

func (s *ReviewService) Create(ctx context.Context, userID, eventID string, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, status.ErrInvalidRating
	}

	event, err := s.store.EventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.Ended(s.now()) {
		return nil, status.ErrEventNotEnded
	}

	ticket, err := s.store.TicketFor(ctx, userID, eventID)
	if err != nil || ticket.RSVPStatus != models.RSVPApproved {
		return nil, status.ErrNotTicketHolder
	}

	return s.store.CreateReview(ctx, &models.Review{
		EventID: eventID,
		UserID:  userID,
		Rating:  rating,
		Comment: comment,
	})
}

// Delete removes a review. Owners may delete their own; admins any.
func (s *ReviewService) Delete(ctx context.Context, requester *models.User, reviewID string) error {
	review, err := s.store.ReviewByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != requester.ID && requester.Role != models.RoleAdmin {
		return status.ErrNotOwner
	}
	return s.store.DeleteReview(ctx, reviewID)
}
