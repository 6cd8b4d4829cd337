package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/service"
	"github.com/iliyamo/staybook/internal/store"
)

func listingsCommand() *cli.Command {
	return &cli.Command{
		Name:    "listings",
		Aliases: []string{"ls"},
		Usage:   "search the catalogue",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "match title or description"},
			&cli.StringFlag{Name: "location", Aliases: []string{"l"}},
			&cli.Int64Flag{Name: "max-price", Usage: "highest nightly price"},
		},
		Action: func(c *cli.Context) error {
			rt, err := load(c)
			if err != nil {
				return err
			}
			f := service.Filter{Query: strings.TrimSpace(c.String("search")), Location: strings.TrimSpace(c.String("location"))}
			if c.IsSet("max-price") {
				p := c.Int64("max-price")
				f.MaxPrice = &p
			}
			res, err := rt.Svc.Search(c.Context, f)
			if err != nil {
				return failure(service.OpListListings, err)
			}
			if res.Count == 0 {
				printf(c, "No listings match your filters\n")
			} else {
				tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tLOCATION\tPRICE\tGUESTS")
				for _, l := range res.Items {
					fmt.Fprintf(tw, "%d\t%s\t%s\t$%d/night\t%d\n", l.ID, l.Title, l.Location, l.Price, l.MaxGuests)
				}
				_ = tw.Flush()
				printf(c, "%d listing(s)\n", res.Count)
			}
			if len(res.Locations) > 0 {
				printf(c, "Locations: %s\n", strings.Join(res.Locations, ", "))
			}
			return nil
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "show a listing with its reviews",
		ArgsUsage: "<listing-id>",
		Action: func(c *cli.Context) error {
			rt, err := load(c)
			if err != nil {
				return err
			}
			id, err := idArg(c)
			if err != nil {
				return failure(service.OpGetListing, err)
			}
			l, err := rt.Svc.GetListing(c.Context, id)
			if err != nil {
				return failure(service.OpGetListing, err)
			}
			reviews, err := rt.Svc.ListReviews(c.Context, id)
			if err != nil {
				return failure(service.OpListReviews, err)
			}
			printListing(c, l)
			printReviews(c, reviews)
			return nil
		},
	}
}

func quoteCommand() *cli.Command {
	return &cli.Command{
		Name:      "quote",
		Usage:     "price a stay without booking it",
		ArgsUsage: "<listing-id>",
		Flags:     stayFlags(),
		Action: func(c *cli.Context) error {
			rt, err := load(c)
			if err != nil {
				return err
			}
			id, err := idArg(c)
			if err != nil {
				return failure(service.OpQuote, err)
			}
			start, end, err := stayDates(c)
			if err != nil {
				return err
			}
			q, err := rt.Svc.Quote(c.Context, id, start, end)
			if err != nil {
				return failure(service.OpQuote, err)
			}
			printf(c, "%d night(s) x $%d = $%d\n", q.Nights, q.PricePerNight, q.TotalPrice)
			return nil
		},
	}
}

func printListing(c *cli.Context, l model.Listing) {
	printf(c, "%s (#%d)\n", l.Title, l.ID)
	printf(c, "%s | $%d/night | %d bed, %d bath, up to %d guests\n", l.Location, l.Price, l.Bedrooms, l.Bathrooms, l.MaxGuests)
	if l.Description != "" {
		printf(c, "\n%s\n", l.Description)
	}
}

func printReviews(c *cli.Context, reviews []model.ReviewDetail) {
	if len(reviews) == 0 {
		printf(c, "\nNo reviews yet\n")
		return
	}
	total := 0
	for _, rv := range reviews {
		total += rv.Rating
	}
	printf(c, "\nRating %.1f (%d review(s))\n", float64(total)/float64(len(reviews)), len(reviews))
	for _, rv := range reviews {
		verified := ""
		if rv.IsVerified {
			verified = " [verified stay]"
		}
		printf(c, "\n#%d %s %s by %s on %s%s\n", rv.ID, strings.Repeat("*", rv.Rating), rv.Title, rv.Author, rv.Date, verified)
		printf(c, "  %s\n", rv.Comment)
		if len(rv.Pros) > 0 {
			printf(c, "  + %s\n", strings.Join(rv.Pros, ", "))
		}
		if len(rv.Cons) > 0 {
			printf(c, "  - %s\n", strings.Join(rv.Cons, ", "))
		}
		if rv.OwnerResponse != nil && *rv.OwnerResponse != "" {
			printf(c, "  Owner: %s\n", *rv.OwnerResponse)
		}
	}
}

// idArg parses the first positional argument.  A missing or malformed id
// names a record that cannot exist.
func idArg(c *cli.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil || id == 0 {
		return 0, store.ErrNotFound
	}
	return id, nil
}

func stayFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "from", Usage: "check-in date (YYYY-MM-DD)", Required: true},
		&cli.StringFlag{Name: "to", Usage: "check-out date (YYYY-MM-DD)", Required: true},
	}
}

func stayDates(c *cli.Context) (start, end model.Date, err error) {
	if start, err = model.ParseDate(c.String("from")); err != nil {
		return start, end, cli.Exit("Dates must be in YYYY-MM-DD format", 1)
	}
	if end, err = model.ParseDate(c.String("to")); err != nil {
		return start, end, cli.Exit("Dates must be in YYYY-MM-DD format", 1)
	}
	return start, end, nil
}
