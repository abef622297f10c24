package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"artistry-hub/internal/status"
	"artistry-hub/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// PB persists domain records in the embedded PocketBase collections.
type PB struct {
	app core.App
}

func New(app core.App) *PB {
	return &PB{app: app}
}

// IsUniqueViolation reports whether err is a unique index violation.
// PocketBase normalizes the raw SQLite error into a validation error on
// ordinary saves; the raw form still surfaces when two transactions
// race past the validator.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "must be unique") ||
		strings.Contains(msg, "validation_not_unique")
}

func (s *PB) EventByID(ctx context.Context, id string) (*models.Event, error) {
	rec, err := s.app.FindRecordById("events", id)
	if err != nil {
		return nil, status.ErrEventNotFound
	}
	return EventFromRecord(rec), nil
}

func (s *PB) TicketFor(ctx context.Context, userID, eventID string) (*models.Ticket, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"tickets",
		"user = {:user} && event = {:event}",
		dbx.Params{"user": userID, "event": eventID},
	)
	if err != nil {
		return nil, status.ErrTicketNotFound
	}
	return TicketFromRecord(rec), nil
}

func (s *PB) TicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	rec, err := s.app.FindRecordById("tickets", id)
	if err != nil {
		return nil, status.ErrTicketNotFound
	}
	return TicketFromRecord(rec), nil
}

// IssueTicket creates a ticket and decrements the event inventory as one
// transaction. The decrement is guarded so inventory never goes negative,
// and the (user, event) unique index turns a duplicate create into
// ErrAlreadyTicketed instead of a second ticket.
func (s *PB) IssueTicket(ctx context.Context, t *models.Ticket) (*models.Ticket, error) {
	var created *core.Record

	err := s.app.RunInTransaction(func(tx core.App) error {
		res, err := tx.DB().NewQuery(
			"UPDATE events SET tickets_available = tickets_available - 1 WHERE id = {:id} AND tickets_available > 0",
		).Bind(dbx.Params{"id": t.EventID}).Execute()
		if err != nil {
			return fmt.Errorf("issue ticket: decrement: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("issue ticket: rows affected: %w", err)
		}
		if affected == 0 {
			return status.ErrSoldOut
		}

		collection, err := tx.FindCollectionByNameOrId("tickets")
		if err != nil {
			return fmt.Errorf("issue ticket: collection: %w", err)
		}

		rec := core.NewRecord(collection)
		rec.Set("event", t.EventID)
		rec.Set("user", t.UserID)
		rec.Set("rsvp_status", t.RSVPStatus)
		rec.Set("status", models.TicketBooked)
		rec.Set("paid", t.Paid)
		rec.Set("payment_ref", t.PaymentRef)
		rec.Set("checkin_hash", t.CheckinHash)

		if err := tx.SaveWithContext(ctx, rec); err != nil {
			if IsUniqueViolation(err) {
				return status.ErrAlreadyTicketed
			}
			return fmt.Errorf("issue ticket: save: %w", err)
		}

		created = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	return TicketFromRecord(created), nil
}

func (s *PB) SetRSVPStatus(ctx context.Context, ticketID, rsvpStatus string) error {
	rec, err := s.app.FindRecordById("tickets", ticketID)
	if err != nil {
		return status.ErrTicketNotFound
	}
	rec.Set("rsvp_status", rsvpStatus)
	return s.app.SaveWithContext(ctx, rec)
}

func (s *PB) SetAttended(ctx context.Context, ticketID string) error {
	rec, err := s.app.FindRecordById("tickets", ticketID)
	if err != nil {
		return status.ErrTicketNotFound
	}
	rec.Set("status", models.TicketAttended)
	return s.app.SaveWithContext(ctx, rec)
}

func (s *PB) ReviewByID(ctx context.Context, id string) (*models.Review, error) {
	rec, err := s.app.FindRecordById("reviews", id)
	if err != nil {
		return nil, status.ErrReviewNotFound
	}
	return ReviewFromRecord(rec), nil
}

// CreateReview stores the review and refreshes the event's aggregated
// rating in the same transaction.
func (s *PB) CreateReview(ctx context.Context, r *models.Review) (*models.Review, error) {
	var created *core.Record

	err := s.app.RunInTransaction(func(tx core.App) error {
		collection, err := tx.FindCollectionByNameOrId("reviews")
		if err != nil {
			return fmt.Errorf("create review: collection: %w", err)
		}

		rec := core.NewRecord(collection)
		rec.Set("event", r.EventID)
		rec.Set("user", r.UserID)
		rec.Set("rating", r.Rating)
		rec.Set("comment", r.Comment)

		if err := tx.SaveWithContext(ctx, rec); err != nil {
			if IsUniqueViolation(err) {
				return status.ErrDuplicateReview
			}
			return fmt.Errorf("create review: save: %w", err)
		}

		if err := refreshEventRating(ctx, tx, r.EventID); err != nil {
			return err
		}

		created = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ReviewFromRecord(created), nil
}

func (s *PB) DeleteReview(ctx context.Context, reviewID string) error {
	return s.app.RunInTransaction(func(tx core.App) error {
		rec, err := tx.FindRecordById("reviews", reviewID)
		if err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		eventID := rec.GetString("event")

		if err := tx.DeleteWithContext(ctx, rec); err != nil {
			return fmt.Errorf("delete review: %w", err)
		}

		return refreshEventRating(ctx, tx, eventID)
	})
}

func refreshEventRating(ctx context.Context, tx core.App, eventID string) error {
	var row dbx.NullStringMap
	err := tx.DB().NewQuery(
		"SELECT COALESCE(AVG(rating), 0) AS avg_rating, COUNT(*) AS cnt FROM reviews WHERE event = {:event}",
	).Bind(dbx.Params{"event": eventID}).One(&row)
	if err != nil {
		return fmt.Errorf("refresh rating: %w", err)
	}

	avg, _ := strconv.ParseFloat(row["avg_rating"].String, 64)
	cnt, _ := strconv.Atoi(row["cnt"].String)

	event, err := tx.FindRecordById("events", eventID)
	if err != nil {
		return fmt.Errorf("refresh rating: %w", err)
	}
	event.Set("average_rating", avg)
	event.Set("rating_count", cnt)

	return tx.SaveWithContext(ctx, event)
}

func EventFromRecord(r *core.Record) *models.Event {
	return &models.Event{
		ID:               r.Id,
		Title:            r.GetString("title"),
		Description:      r.GetString("description"),
		Category:         r.GetString("category"),
		SubCategory:      r.GetString("sub_category"),
		Type:             r.GetString("type"),
		Location:         r.GetString("location"),
		Date:             r.GetDateTime("date").Time(),
		StartTime:        r.GetDateTime("start_time").Time(),
		EndTime:          r.GetDateTime("end_time").Time(),
		TicketQuantity:   r.GetInt("ticket_quantity"),
		TicketsAvailable: r.GetInt("tickets_available"),
		TicketPrice:      decimal.NewFromFloat(r.GetFloat("ticket_price")),
		AverageRating:    r.GetFloat("average_rating"),
		RatingCount:      r.GetInt("rating_count"),
		Banner:           r.GetString("banner"),
		CreatedBy:        r.GetString("created_by"),
		Created:          r.GetDateTime("created").Time(),
	}
}

func TicketFromRecord(r *core.Record) *models.Ticket {
	return &models.Ticket{
		ID:          r.Id,
		EventID:     r.GetString("event"),
		UserID:      r.GetString("user"),
		RSVPStatus:  r.GetString("rsvp_status"),
		Status:      r.GetString("status"),
		Paid:        r.GetBool("paid"),
		PaymentRef:  r.GetString("payment_ref"),
		CheckinHash: r.GetString("checkin_hash"),
		Created:     r.GetDateTime("created").Time(),
	}
}

func ReviewFromRecord(r *core.Record) *models.Review {
	return &models.Review{
		ID:      r.Id,
		EventID: r.GetString("event"),
		UserID:  r.GetString("user"),
		Rating:  r.GetInt("rating"),
		Comment: r.GetString("comment"),
		Created: r.GetDateTime("created").Time(),
	}
}

func DiscussionFromRecord(r *core.Record) *models.Discussion {
	return &models.Discussion{
		ID:      r.Id,
		EventID: r.GetString("event"),
		UserID:  r.GetString("user"),
		Message: r.GetString("message"),
		Created: r.GetDateTime("created").Time(),
	}
}

func UserFromRecord(r *core.Record) *models.User {
	u := &models.User{
		ID:        r.Id,
		Name:      r.GetString("name"),
		Email:     r.Email(),
		Role:      r.GetString("role"),
		Bio:       r.GetString("bio"),
		IsBanned:  r.GetBool("is_banned"),
		BanReason: r.GetString("ban_reason"),
		BannedBy:  r.GetString("banned_by"),
		Created:   r.GetDateTime("created").Time(),
	}
	if dt := r.GetDateTime("banned_at"); !dt.IsZero() {
		t := dt.Time()
		u.BannedAt = &t
	}
	return u
}
