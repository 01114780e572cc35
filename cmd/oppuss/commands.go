package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yukikurage/oppuss/internal/aggregate"
	"github.com/yukikurage/oppuss/internal/imaging"
	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/services"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func signupCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account with --email and --password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.opts.email == "" || a.opts.password == "" {
				return errCredentials
			}
			if err := a.connect(); err != nil {
				return err
			}
			user, err := a.backend.Signup(cmd.Context(), a.opts.email, name, a.opts.password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed up %s (%s)\n", user.Email, shortID(user.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	return cmd
}

func housesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "houses",
		Short: "List and manage houses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			budgets := make(map[string]aggregate.HouseSummary)
			for _, hs := range a.stores.HouseBudgets() {
				budgets[hs.HouseID] = hs
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tADDRESS\tROOMS\tBUDGET\tSPENT")
			for _, h := range a.stores.Houses.Items() {
				b := budgets[h.ID]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
					shortID(h.ID), h.Name, h.Address, b.Rooms, money(b.Budget), money(b.Spent))
			}
			return tw.Flush()
		},
	}

	var address string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a house",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			h, err := a.stores.Houses.Add(cmd.Context(), services.CreateHouseInput{Name: args[0], Address: address})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added house %s (%s)\n", h.Name, shortID(h.ID))
			return nil
		},
	}
	add.Flags().StringVar(&address, "address", "", "Street address")

	rm := &cobra.Command{
		Use:   "rm HOUSE",
		Short: "Delete a house and all of its rooms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			h, err := a.house(args[0])
			if err != nil {
				return err
			}
			if err := a.stores.DeleteHouse(cmd.Context(), h.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted house %s\n", h.Name)
			return nil
		},
	}

	cmd.AddCommand(add, rm)
	return cmd
}

func roomsCmd(a *app) *cobra.Command {
	var house string
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List and manage rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			rooms := a.stores.Rooms.Items()
			if house != "" {
				h, err := a.house(house)
				if err != nil {
					return err
				}
				rooms = a.stores.Rooms.ForHouse(h.ID)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tHOUSE\tDEADLINE\tTASKS\tBUDGET\tSPENT")
			for _, r := range rooms {
				done := 0
				for _, t := range r.Tasks {
					if t.Done {
						done++
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
					shortID(r.ID), r.Name, shortID(r.HouseID), r.Deadline,
					done, len(r.Tasks), money(r.Budget), money(aggregate.RoomSpent(r)))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&house, "house", "", "Only list rooms of this house")

	var (
		budget   float64
		deadline string
	)
	add := &cobra.Command{
		Use:   "add HOUSE NAME",
		Short: "Add a room to a house",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			h, err := a.house(args[0])
			if err != nil {
				return err
			}
			r, err := a.stores.Rooms.Add(cmd.Context(), services.CreateRoomInput{
				HouseID:  h.ID,
				Name:     args[1],
				Budget:   budget,
				Deadline: deadline,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added room %s (%s) to %s\n", r.Name, shortID(r.ID), h.Name)
			return nil
		},
	}
	add.Flags().Float64Var(&budget, "budget", 0, "Room budget")
	add.Flags().StringVar(&deadline, "deadline", "", "Deadline as "+models.DeadlineLayout)

	rm := &cobra.Command{
		Use:   "rm ROOM",
		Short: "Delete a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			r, err := a.room(args[0])
			if err != nil {
				return err
			}
			if err := a.stores.Rooms.Delete(cmd.Context(), r.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted room %s\n", r.Name)
			return nil
		},
	}

	cmd.AddCommand(add, rm)
	return cmd
}

func tasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks ROOM",
		Short: "List and manage the tasks of a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			r, err := a.room(args[0])
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tDONE\tTITLE\tCOST")
			for _, t := range r.Tasks {
				cost := "-"
				if t.Cost != nil {
					cost = money(*t.Cost)
				}
				mark := " "
				if t.Done {
					mark = "x"
				}
				fmt.Fprintf(tw, "%s\t[%s]\t%s\t%s\n", shortID(t.ID), mark, t.Title, cost)
			}
			return tw.Flush()
		},
	}

	var (
		cost float64
		note string
	)
	add := &cobra.Command{
		Use:   "add ROOM TITLE",
		Short: "Add a task to a room",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			r, err := a.room(args[0])
			if err != nil {
				return err
			}
			input := services.CreateTaskInput{Title: args[1], Note: note}
			if cmd.Flags().Changed("cost") {
				input.Cost = &cost
			}
			t, err := a.stores.Rooms.AddTask(cmd.Context(), r.ID, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %s (%s) to %s\n", t.Title, shortID(t.ID), r.Name)
			return nil
		},
	}
	add.Flags().Float64Var(&cost, "cost", 0, "Task cost")
	add.Flags().StringVar(&note, "note", "", "Task note")

	done := &cobra.Command{
		Use:   "done ROOM TASK",
		Short: "Toggle whether a task is done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTask(cmd, args, func(r models.Room, t models.Task) error {
				if err := a.stores.Rooms.ToggleTask(cmd.Context(), r.ID, t.ID); err != nil {
					return err
				}
				state := "done"
				if t.Done {
					state = "not done"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s %s\n", t.Title, state)
				return nil
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm ROOM TASK",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTask(cmd, args, func(r models.Room, t models.Task) error {
				if err := a.stores.Rooms.DeleteTask(cmd.Context(), r.ID, t.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", t.Title)
				return nil
			})
		},
	}

	cmd.AddCommand(add, done, rm)
	return cmd
}

func (a *app) withTask(cmd *cobra.Command, args []string, fn func(models.Room, models.Task) error) error {
	if err := a.open(cmd.Context()); err != nil {
		return err
	}
	r, err := a.room(args[0])
	if err != nil {
		return err
	}
	t, err := resolve(r.Tasks, taskID, args[1], "task")
	if err != nil {
		return err
	}
	return fn(r, t)
}

func budgetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "budget",
		Short: "Show budget, spent and remaining per house and overall",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "HOUSE\tROOMS\tBUDGET\tSPENT\tREMAINING")
			for _, hs := range a.stores.HouseBudgets() {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
					hs.Name, hs.Rooms, money(hs.Budget), money(hs.Spent), money(hs.Remaining))
			}
			total := a.stores.Budget()
			fmt.Fprintf(tw, "TOTAL\t%d\t%s\t%s\t%s\n",
				a.stores.Rooms.Len(), money(total.Budget), money(total.Spent), money(total.Remaining))
			return tw.Flush()
		},
	}
}

func shoppingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopping",
		Short: "Show and manage the shopping list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tDONE\tTITLE\tQTY\tCATEGORY")
			for _, group := range [][]models.ShoppingItem{a.stores.ActiveItems(), a.stores.CompletedItems()} {
				for _, it := range group {
					mark := " "
					if it.Completed {
						mark = "x"
					}
					qty := strconv.Itoa(it.Quantity)
					if it.Unit != "" {
						qty += " " + it.Unit
					}
					fmt.Fprintf(tw, "%s\t[%s]\t%s\t%s\t%s\n", shortID(it.ID), mark, it.Title, qty, it.Category)
				}
			}
			return tw.Flush()
		},
	}

	var input services.CreateShoppingItemInput
	add := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add an item to the shopping list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			input.Title = args[0]
			it, err := a.stores.Shopping.Add(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", it.Title, shortID(it.ID))
			return nil
		},
	}
	add.Flags().IntVar(&input.Quantity, "qty", 1, "Quantity")
	add.Flags().StringVar(&input.Unit, "unit", "", "Unit of the quantity")
	add.Flags().StringVar(&input.Category, "category", "", "Category")
	add.Flags().StringVar(&input.Note, "note", "", "Note")

	toggle := &cobra.Command{
		Use:   "toggle ITEM",
		Short: "Toggle whether an item is completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			it, err := a.item(args[0])
			if err != nil {
				return err
			}
			updated, err := a.stores.Shopping.Toggle(cmd.Context(), it.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s completed: %t\n", updated.Title, updated.Completed)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm ITEM",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			it, err := a.item(args[0])
			if err != nil {
				return err
			}
			if err := a.stores.Shopping.Delete(cmd.Context(), it.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", it.Title)
			return nil
		},
	}

	clearDone := &cobra.Command{
		Use:   "clear",
		Short: "Delete all completed items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			n, err := a.stores.Shopping.ClearCompleted(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d completed items\n", n)
			return nil
		},
	}

	cmd.AddCommand(add, toggle, rm, clearDone)
	return cmd
}

func photosCmd(a *app) *cobra.Command {
	var quality string
	cmd := &cobra.Command{
		Use:   "photos ROOM FILE...",
		Short: "Resize and attach photos to a room",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			r, err := a.room(args[0])
			if err != nil {
				return err
			}

			files := make([]imaging.File, 0, len(args)-1)
			for _, path := range args[1:] {
				f, err := imaging.FromPath(path)
				if err != nil {
					return err
				}
				files = append(files, f)
			}

			before := len(r.Photos)
			updated, err := a.backend.UploadPhotos(cmd.Context(), r.ID, quality, files)
			if err != nil {
				return err
			}
			// The store mirrors rooms; pick up the new photo list.
			if err := a.stores.Rooms.Load(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Attached %d of %d photos to %s\n",
				len(updated.Photos)-before, len(files), updated.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&quality, "quality", "", "Image profile (high, medium, low)")
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write a JSON backup to FILE or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			doc, err := a.backend.Export(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			if err := writeJSON(out, doc); err != nil {
				return err
			}
			if len(args) == 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d houses and %d rooms to %s\n",
					len(doc.Data.Houses), len(doc.Data.Rooms), args[0])
			}
			return nil
		},
	}
}

func importCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace all data with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res, err := a.backend.Import(cmd.Context(), payload)
			if err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("import failed: %s", res.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return a.stores.LoadAll(cmd.Context())
		},
	}
}

func clearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every house, room and shopping item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete all data without --yes")
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			res, err := a.backend.ClearAll(cmd.Context())
			if err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("clear failed: %s", res.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deleting all data")
	return cmd
}

// writeJSON writes doc indented, the way backups are offered for download.
func writeJSON(w io.Writer, doc any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

