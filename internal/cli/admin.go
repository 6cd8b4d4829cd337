package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/service"
)

func adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "manage listings (admin only)",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "create a listing",
				Flags: listingFlags(),
				Action: func(c *cli.Context) error {
					rt, err := load(c)
					if err != nil {
						return err
					}
					l, err := rt.Svc.CreateListing(c.Context, rt.Session.User(), listingInput(c, model.Listing{}))
					if err != nil {
						return failure(service.OpSaveListing, err)
					}
					printf(c, "Created listing #%d %s\n", l.ID, l.Title)
					return nil
				},
			},
			{
				Name:      "edit",
				Usage:     "change a listing; unset flags keep their values",
				ArgsUsage: "<listing-id>",
				Flags:     listingFlags(),
				Action: func(c *cli.Context) error {
					rt, err := load(c)
					if err != nil {
						return err
					}
					id, err := idArg(c)
					if err != nil {
						return failure(service.OpSaveListing, err)
					}
					current, err := rt.Svc.GetListing(c.Context, id)
					if err != nil {
						return failure(service.OpSaveListing, err)
					}
					l, err := rt.Svc.UpdateListing(c.Context, rt.Session.User(), id, listingInput(c, current))
					if err != nil {
						return failure(service.OpSaveListing, err)
					}
					printf(c, "Updated listing #%d %s\n", l.ID, l.Title)
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "delete a listing",
				ArgsUsage: "<listing-id>",
				Action: func(c *cli.Context) error {
					rt, err := load(c)
					if err != nil {
						return err
					}
					id, err := idArg(c)
					if err != nil {
						return failure(service.OpDeleteListing, err)
					}
					if err := rt.Svc.DeleteListing(c.Context, rt.Session.User(), id); err != nil {
						return failure(service.OpDeleteListing, err)
					}
					printf(c, "Deleted listing #%d\n", id)
					return nil
				},
			},
		},
	}
}

func listingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title"},
		&cli.StringFlag{Name: "description"},
		&cli.StringFlag{Name: "location"},
		&cli.Int64Flag{Name: "price", Usage: "nightly price"},
		&cli.IntFlag{Name: "bedrooms"},
		&cli.IntFlag{Name: "bathrooms"},
		&cli.IntFlag{Name: "guests", Usage: "maximum guests"},
		&cli.StringFlag{Name: "image", Usage: "image URL"},
	}
}

// listingInput starts from base and applies every flag the user set.
func listingInput(c *cli.Context, base model.Listing) service.ListingInput {
	in := service.ListingInput{
		Title: base.Title, Description: base.Description, Location: base.Location,
		Price: base.Price, Bedrooms: base.Bedrooms, Bathrooms: base.Bathrooms,
		MaxGuests: base.MaxGuests, Image: base.Image,
	}
	if c.IsSet("title") {
		in.Title = c.String("title")
	}
	if c.IsSet("description") {
		in.Description = c.String("description")
	}
	if c.IsSet("location") {
		in.Location = c.String("location")
	}
	if c.IsSet("price") {
		in.Price = c.Int64("price")
	}
	if c.IsSet("bedrooms") {
		in.Bedrooms = c.Int("bedrooms")
	}
	if c.IsSet("bathrooms") {
		in.Bathrooms = c.Int("bathrooms")
	}
	if c.IsSet("guests") {
		in.MaxGuests = c.Int("guests")
	}
	if c.IsSet("image") {
		in.Image = c.String("image")
	}
	return in
}
