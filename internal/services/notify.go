package services

import (
	"fmt"
	"log/slog"

	"artistry-hub/models"

	pubnub "github.com/pubnub/go"
)

// Notifier fans out realtime updates the SPA subscribes to.
type Notifier interface {
	PaymentCompleted(userID, eventID, pidx string)
	DiscussionPosted(d *models.Discussion)
}

type PubNubNotifier struct {
	pn *pubnub.PubNub
}

func NewPubNubNotifier(pn *pubnub.PubNub) *PubNubNotifier {
	return &PubNubNotifier{pn: pn}
}

func (n *PubNubNotifier) PaymentCompleted(userID, eventID, pidx string) {
	channel := fmt.Sprintf("user-%s", userID)
	_, _, err := n.pn.Publish().
		Channel(channel).
		Message(map[string]interface{}{
			"type":     "payment_success",
			"event_id": eventID,
			"pidx":     pidx,
		}).
		Execute()
	if err != nil {
		slog.Error("pubnub publish failed", "channel", channel, "error", err)
	}
}

func (n *PubNubNotifier) DiscussionPosted(d *models.Discussion) {
	channel := fmt.Sprintf("event-%s", d.EventID)
	_, _, err := n.pn.Publish().
		Channel(channel).
		Message(map[string]interface{}{
			"type":    "discussion_message",
			"id":      d.ID,
			"user_id": d.UserID,
			"message": d.Message,
			"created": d.Created,
		}).
		Execute()
	if err != nil {
		slog.Error("pubnub publish failed", "channel", channel, "error", err)
	}
}

// NopNotifier is used when PubNub keys are not configured.
type NopNotifier struct{}

func (NopNotifier) PaymentCompleted(userID, eventID, pidx string) {}
func (NopNotifier) DiscussionPosted(d *models.Discussion)         {}
