package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/iliyamo/staybook/internal/service"
)

func bookCommand() *cli.Command {
	return &cli.Command{
		Name:      "book",
		Usage:     "reserve a listing for a date range",
		ArgsUsage: "<listing-id>",
		Flags:     stayFlags(),
		Action: func(c *cli.Context) error {
			rt, err := load(c)
			if err != nil {
				return err
			}
			id, err := idArg(c)
			if err != nil {
				return failure(service.OpBook, err)
			}
			start, end, err := stayDates(c)
			if err != nil {
				return err
			}
			r, err := rt.Svc.Book(c.Context, rt.Session.User(), service.BookingInput{ListingID: id, StartDate: start, EndDate: end})
			if err != nil {
				return failure(service.OpBook, err)
			}
			printf(c, "Reservation #%d confirmed: %s to %s, total $%d\n", r.ID, r.StartDate, r.EndDate, r.TotalPrice)
			return nil
		},
	}
}

func reservationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "reservations",
		Usage: "list your reservations",
		Action: func(c *cli.Context) error {
			rt, err := load(c)
			if err != nil {
				return err
			}
			mine, err := rt.Svc.ListReservations(c.Context, rt.Session.User())
			if err != nil {
				return failure(service.OpListBookings, err)
			}
			if len(mine) == 0 {
				printf(c, "You have no reservations\n")
				return nil
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLISTING\tLOCATION\tCHECK-IN\tCHECK-OUT\tTOTAL\tSTATUS")
			for _, r := range mine {
				status := r.Status
				if status == "" {
					status = "confirmed"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t$%d\t%s\n", r.ID, r.Listing.Title, r.Listing.Location, r.StartDate, r.EndDate, r.TotalPrice, status)
			}
			return tw.Flush()
		},
	}
}

func cancelCommand() *cli.Command {
	return &cli.Command{
		Name:      "cancel",
		Usage:     "cancel a reservation",
		ArgsUsage: "<reservation-id>",
		Action: func(c *cli.Context) error {
			rt, err := load(c)
			if err != nil {
				return err
			}
			id, err := idArg(c)
			if err != nil {
				return failure(service.OpCancelBooking, err)
			}
			if err := rt.Svc.Cancel(c.Context, rt.Session.User(), id); err != nil {
				return failure(service.OpCancelBooking, err)
			}
			printf(c, "Reservation #%d cancelled\n", id)
			return nil
		},
	}
}
