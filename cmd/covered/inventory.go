package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/and161185/covered/internal/api"
	"github.com/and161185/covered/internal/app"
	"github.com/and161185/covered/internal/model"
)

// run opens the core, calls op and prints its data.
func run[T any](c *cli, ctx context.Context, op func(a *app.App) api.Result[T]) error {
	return c.withApp(ctx, func(a *app.App) error {
		res := op(a)
		if !res.Success {
			return failure(res.Error, res.Err)
		}
		return c.printJSON(res.Data)
	})
}

// runQuiet is run for operations without a payload.
func runQuiet(c *cli, ctx context.Context, done string, op func(a *app.App) api.Result[struct{}]) error {
	return c.withApp(ctx, func(a *app.App) error {
		res := op(a)
		if !res.Success {
			return failure(res.Error, res.Err)
		}
		fmt.Fprintln(c.out, done)
		return nil
	})
}

// changed returns a pointer to v when the flag was set on the command line.
func changed[T any](fs *pflag.FlagSet, name string, v T) *T {
	if !fs.Changed(name) {
		return nil
	}
	return &v
}

func (c *cli) homesCmd() *cobra.Command {
	homes := &cobra.Command{Use: "homes", Short: "Manage homes"}

	homes.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your homes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(c, cmd.Context(), func(a *app.App) api.Result[[]model.Home] {
				return a.LoadHomes(cmd.Context())
			})
		},
	})

	var name, address string
	create := &cobra.Command{
		Use:   "create",
		Short: "Add a home",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(c, cmd.Context(), func(a *app.App) api.Result[*model.Home] {
				return a.CreateHome(cmd.Context(), model.HomeInput{Name: name, Address: address})
			})
		},
	}
	create.Flags().StringVarP(&name, "name", "n", "", "home name (required)")
	create.Flags().StringVarP(&address, "address", "a", "", "street address (required)")
	homes.AddCommand(create)

	homes.AddCommand(&cobra.Command{
		Use:   "show HOME_ID",
		Short: "Show a home with its rooms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(c, cmd.Context(), func(a *app.App) api.Result[*model.Home] {
				return a.API.GetHome(cmd.Context(), args[0])
			})
		},
	})

	var newName, newAddress string
	update := &cobra.Command{
		Use:   "update HOME_ID",
		Short: "Rename a home or change its address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			patch := model.HomePatch{
				Name:    changed(fs, "name", newName),
				Address: changed(fs, "address", newAddress),
			}
			return run(c, cmd.Context(), func(a *app.App) api.Result[*model.Home] {
				return a.UpdateHome(cmd.Context(), args[0], patch)
			})
		},
	}
	update.Flags().StringVarP(&newName, "name", "n", "", "new name")
	update.Flags().StringVarP(&newAddress, "address", "a", "", "new address")
	homes.AddCommand(update)

	homes.AddCommand(&cobra.Command{
		Use:   "delete HOME_ID",
		Short: "Delete a home with its rooms and items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuiet(c, cmd.Context(), "deleted", func(a *app.App) api.Result[struct{}] {
				return a.DeleteHome(cmd.Context(), args[0])
			})
		},
	})

	homes.AddCommand(&cobra.Command{
		Use:   "use HOME_ID",
		Short: "Select the current home",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(c, cmd.Context(), func(a *app.App) api.Result[*model.Home] {
				return a.SelectHome(cmd.Context(), args[0])
			})
		},
	})

	homes.AddCommand(&cobra.Command{
		Use:   "current",
		Short: "Show the current home",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				h := a.Store.State().CurrentHome
				if h == nil {
					return failure("no current home; run: covered homes use HOME_ID", nil)
				}
				return c.printJSON(h)
			})
		},
	})
	return homes
}

// homeOrCurrent falls back to the selected home when id is empty.
func homeOrCurrent(a *app.App, id string) string {
	if id != "" {
		return id
	}
	if h := a.Store.State().CurrentHome; h != nil {
		return h.ID
	}
	return ""
}

func (c *cli) roomsCmd() *cobra.Command {
	rooms := &cobra.Command{Use: "rooms", Short: "Manage rooms"}

	var listHome string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the rooms of a home (the current one by default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(c, cmd.Context(), func(a *app.App) api.Result[[]model.Room] {
				return a.LoadRooms(cmd.Context(), homeOrCurrent(a, listHome))
			})
		},
	}
	list.Flags().StringVar(&listHome, "home", "", "home id")
	rooms.AddCommand(list)

	var homeID, name, roomType string
	create := &cobra.Command{
		Use:   "create",
		Short: "Add a room",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(c, cmd.Context(), func(a *app.App) api.Result[*model.Room] {
				return a.CreateRoom(cmd.Context(), model.RoomInput{
					HomeID:   homeOrCurrent(a, homeID),
					Name:     name,
					RoomType: model.RoomType(roomType),
				})
			})
		},
	}
	create.Flags().StringVar(&homeID, "home", "", "home id (the current one by default)")
	create.Flags().StringVarP(&name, "name", "n", "", "room name (required)")
	create.Flags().StringVarP(&roomType, "type", "t", "", "room type, e.g. kitchen or living_room (required)")
	rooms.AddCommand(create)

	var newName, newType string
	update := &cobra.Command{
		Use:   "update ROOM_ID",
		Short: "Rename a room or change its type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			patch := model.RoomPatch{Name: changed(fs, "name", newName)}
			if fs.Changed("type") {
				rt := model.RoomType(newType)
				patch.RoomType = &rt
			}
			return run(c, cmd.Context(), func(a *app.App) api.Result[*model.Room] {
				return a.UpdateRoom(cmd.Context(), args[0], patch)
			})
		},
	}
	update.Flags().StringVarP(&newName, "name", "n", "", "new name")
	update.Flags().StringVarP(&newType, "type", "t", "", "new room type")
	rooms.AddCommand(update)

	var undo bool
	complete := &cobra.Command{
		Use:   "complete ROOM_ID",
		Short: "Mark a room as fully catalogued",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(c, cmd.Context(), func(a *app.App) api.Result[*model.Room] {
				return a.CompleteRoom(cmd.Context(), args[0], !undo)
			})
		},
	}
	complete.Flags().BoolVar(&undo, "undo", false, "mark as not completed")
	rooms.AddCommand(complete)

	rooms.AddCommand(&cobra.Command{
		Use:   "delete ROOM_ID",
		Short: "Delete a room and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuiet(c, cmd.Context(), "deleted", func(a *app.App) api.Result[struct{}] {
				return a.DeleteRoom(cmd.Context(), args[0])
			})
		},
	})
	return rooms
}

type itemFlags struct {
	name, category, condition          string
	brand, model, serial, purchaseDate string
	notes                              string
	purchasePrice, estimatedValue      float64
}

func (f *itemFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.name, "name", "n", "", "item name")
	fs.StringVar(&f.category, "category", "", "category, e.g. electronics or furniture")
	fs.StringVar(&f.condition, "condition", "", "new, excellent, good, fair or poor")
	fs.StringVar(&f.brand, "brand", "", "brand")
	fs.StringVar(&f.model, "model", "", "model")
	fs.StringVar(&f.serial, "serial", "", "serial number")
	fs.StringVar(&f.purchaseDate, "purchase-date", "", "purchase date (YYYY-MM-DD)")
	fs.Float64Var(&f.purchasePrice, "purchase-price", 0, "purchase price")
	fs.Float64Var(&f.estimatedValue, "value", 0, "estimated value")
	fs.StringVar(&f.notes, "notes", "", "notes")
}

func (f *itemFlags) input(fs *pflag.FlagSet, roomID string) model.ItemInput {
	return model.ItemInput{
		RoomID:         roomID,
		Name:           f.name,
		Category:       model.ItemCategory(f.category),
		Condition:      model.ItemCondition(f.condition),
		EstimatedValue: f.estimatedValue,
		Brand:          changed(fs, "brand", f.brand),
		Model:          changed(fs, "model", f.model),
		SerialNumber:   changed(fs, "serial", f.serial),
		PurchaseDate:   changed(fs, "purchase-date", f.purchaseDate),
		PurchasePrice:  changed(fs, "purchase-price", f.purchasePrice),
		Notes:          changed(fs, "notes", f.notes),
	}
}

func (f *itemFlags) patch(fs *pflag.FlagSet) model.ItemPatch {
	p := model.ItemPatch{
		Name:           changed(fs, "name", f.name),
		Brand:          changed(fs, "brand", f.brand),
		Model:          changed(fs, "model", f.model),
		SerialNumber:   changed(fs, "serial", f.serial),
		PurchaseDate:   changed(fs, "purchase-date", f.purchaseDate),
		PurchasePrice:  changed(fs, "purchase-price", f.purchasePrice),
		EstimatedValue: changed(fs, "value", f.estimatedValue),
		Notes:          changed(fs, "notes", f.notes),
	}
	if fs.Changed("category") {
		c := model.ItemCategory(f.category)
		p.Category = &c
	}
	if fs.Changed("condition") {
		c := model.ItemCondition(f.condition)
		p.Condition = &c
	}
	return p
}

func (c *cli) itemsCmd() *cobra.Command {
	items := &cobra.Command{Use: "items", Short: "Manage items"}

	var listRoom string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the items of a room",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(c, cmd.Context(), func(a *app.App) api.Result[[]model.Item] {
				return a.LoadItems(cmd.Context(), listRoom)
			})
		},
	}
	list.Flags().StringVar(&listRoom, "room", "", "room id (required)")
	items.AddCommand(list)

	var roomID string
	var cf itemFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Add an item to a room",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := cf.input(cmd.Flags(), roomID)
			return run(c, cmd.Context(), func(a *app.App) api.Result[*model.Item] {
				return a.CreateItem(cmd.Context(), in)
			})
		},
	}
	create.Flags().StringVar(&roomID, "room", "", "room id (required)")
	cf.register(create.Flags())
	items.AddCommand(create)

	var uf itemFlags
	update := &cobra.Command{
		Use:   "update ITEM_ID",
		Short: "Change an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := uf.patch(cmd.Flags())
			return run(c, cmd.Context(), func(a *app.App) api.Result[*model.Item] {
				return a.UpdateItem(cmd.Context(), args[0], patch)
			})
		},
	}
	uf.register(update.Flags())
	items.AddCommand(update)

	items.AddCommand(&cobra.Command{
		Use:   "delete ITEM_ID",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuiet(c, cmd.Context(), "deleted", func(a *app.App) api.Result[struct{}] {
				return a.DeleteItem(cmd.Context(), args[0])
			})
		},
	})
	return items
}

func (c *cli) pushTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push-token TOKEN",
		Short: "Register a device push token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuiet(c, cmd.Context(), "registered", func(a *app.App) api.Result[struct{}] {
				return a.RegisterPushToken(cmd.Context(), args[0])
			})
		},
	}
}
