package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/iliyamo/staybook/internal/service"
)

func reviewCommand() *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "review a listing you have stayed at",
		ArgsUsage: "<listing-id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "rating", Aliases: []string{"r"}, Usage: "1 to 5", Required: true},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true},
			&cli.StringFlag{Name: "comment", Aliases: []string{"c"}, Required: true},
			&cli.StringSliceFlag{Name: "pro", Usage: "something you liked (repeatable)"},
			&cli.StringSliceFlag{Name: "con", Usage: "something you did not like (repeatable)"},
		},
		Action: func(c *cli.Context) error {
			rt, err := load(c)
			if err != nil {
				return err
			}
			id, err := idArg(c)
			if err != nil {
				return failure(service.OpSubmitReview, err)
			}
			rv, err := rt.Svc.SubmitReview(c.Context, rt.Session.User(), service.ReviewInput{
				ListingID: id,
				Rating:    c.Int("rating"),
				Title:     c.String("title"),
				Comment:   c.String("comment"),
				Pros:      c.StringSlice("pro"),
				Cons:      c.StringSlice("con"),
			})
			if err != nil {
				return failure(service.OpSubmitReview, err)
			}
			printf(c, "Review #%d submitted. Thank you!\n", rv.ID)
			return nil
		},
	}
}

func respondCommand() *cli.Command {
	return &cli.Command{
		Name:      "respond",
		Usage:     "answer a review as the owner (admin only)",
		ArgsUsage: "<review-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Required: true},
		},
		Action: func(c *cli.Context) error {
			rt, err := load(c)
			if err != nil {
				return err
			}
			id, err := idArg(c)
			if err != nil {
				return failure(service.OpRespondToReview, err)
			}
			if _, err := rt.Svc.RespondToReview(c.Context, rt.Session.User(), id, c.String("text")); err != nil {
				return failure(service.OpRespondToReview, err)
			}
			printf(c, "Response added to review #%d\n", id)
			return nil
		},
	}
}
