package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection.Fields.Add(
			&core.SelectField{
				Name:      "role",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"Admin", "Artist/Organizer", "Attendee"},
			},
			&core.EditorField{Name: "bio"},
			&core.BoolField{Name: "is_banned"},
			&core.TextField{Name: "ban_reason", Max: 500},
			&core.DateField{Name: "banned_at"},
			&core.RelationField{
				Name:         "banned_by",
				MaxSelect:    1,
				CollectionId: collection.Id,
			},
		)

		collection.AddIndex("idx_users_name", true, "name", "name != ''")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection.RemoveIndex("idx_users_name")

		for _, name := range []string{"role", "bio", "is_banned", "ban_reason", "banned_at", "banned_by"} {
			if f := collection.Fields.GetByName(name); f != nil {
				collection.Fields.RemoveByName(name)
			}
		}

		return app.Save(collection)
	})
}
