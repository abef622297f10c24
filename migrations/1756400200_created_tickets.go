package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("tickets")

		collection.Fields.Add(
			&core.RelationField{
				Name:          "user",
				Required:      true,
				MaxSelect:     1,
				CollectionId:  users.Id,
				CascadeDelete: true,
			},
			&core.RelationField{
				Name:          "event",
				Required:      true,
				MaxSelect:     1,
				CollectionId:  events.Id,
				CascadeDelete: true,
			},
			&core.SelectField{
				Name:      "rsvp_status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "approved", "rejected"},
			},
			&core.SelectField{
				Name:      "status",
				MaxSelect: 1,
				Values:    []string{"booked", "attended"},
			},
			&core.BoolField{Name: "paid"},
			&core.TextField{Name: "payment_ref", Max: 100},
			&core.TextField{Name: "checkin_hash", Max: 100},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		// One ticket per user per event. Payment reconciliation relies on
		// this to stay idempotent under concurrent callbacks.
		collection.AddIndex("idx_tickets_user_event", true, "`user`, `event`", "")
		collection.AddIndex("idx_tickets_event", false, "event", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
