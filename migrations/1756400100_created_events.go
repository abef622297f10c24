package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("events")

		collection.Fields.Add(
			&core.TextField{Name: "title", Required: true, Max: 200},
			&core.EditorField{Name: "description"},
			&core.SelectField{
				Name:      "category",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"Music", "Dance", "Theatre", "Visual Arts", "Literature", "Workshop", "Other"},
			},
			&core.TextField{Name: "sub_category", Max: 100},
			&core.SelectField{
				Name:      "type",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"Venue", "Online"},
			},
			&core.TextField{Name: "location", Max: 300},
			&core.DateField{Name: "date", Required: true},
			&core.DateField{Name: "start_time"},
			&core.DateField{Name: "end_time"},
			&core.NumberField{Name: "ticket_quantity", Required: true, OnlyInt: true, Min: types.Pointer(0.0)},
			&core.NumberField{Name: "tickets_available", OnlyInt: true, Min: types.Pointer(0.0)},
			&core.NumberField{Name: "ticket_price", Min: types.Pointer(0.0)},
			&core.NumberField{Name: "average_rating"},
			&core.NumberField{Name: "rating_count", OnlyInt: true},
			&core.TextField{Name: "banner", Max: 500},
			&core.RelationField{
				Name:          "created_by",
				Required:      true,
				MaxSelect:     1,
				CollectionId:  users.Id,
				CascadeDelete: false,
			},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_events_category", false, "category", "")
		collection.AddIndex("idx_events_created_by", false, "created_by", "")
		collection.AddIndex("idx_events_date", false, "date", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
