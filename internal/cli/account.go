package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/iliyamo/staybook/internal/service"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "log in and remember the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, EnvVars: []string{"STAYBOOK_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			rt, err := load(c)
			if err != nil {
				return err
			}
			u, err := rt.Svc.Login(c.Context, rt.Session, c.String("username"), c.String("password"))
			if err != nil {
				return failure(service.OpLogin, err)
			}
			role := "guest"
			if u.IsAdmin {
				role = "admin"
			}
			printf(c, "Logged in as %s (%s)\n", u.Username, role)
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the stored session",
		Action: func(c *cli.Context) error {
			rt, err := load(c)
			if err != nil {
				return err
			}
			if err := rt.Session.Logout(c.Context); err != nil {
				return cli.Exit("Could not clear the session file", 1)
			}
			printf(c, "Logged out\n")
			return nil
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "show the logged-in user",
		Action: func(c *cli.Context) error {
			rt, err := load(c)
			if err != nil {
				return err
			}
			u := rt.Session.User()
			if u == nil {
				printf(c, "Not logged in\n")
				return nil
			}
			if u.IsAdmin {
				printf(c, "%s (admin)\n", u.Username)
			} else {
				printf(c, "%s\n", u.Username)
			}
			return nil
		},
	}
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create a guest account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true},
			&cli.StringFlag{Name: "confirm", Usage: "password confirmation (defaults to --password)"},
		},
		Action: func(c *cli.Context) error {
			rt, err := load(c)
			if err != nil {
				return err
			}
			in := service.RegisterInput{
				Username:        c.String("username"),
				Password:        c.String("password"),
				ConfirmPassword: c.String("confirm"),
			}
			if !c.IsSet("confirm") {
				in.ConfirmPassword = in.Password
			}
			u, err := rt.Svc.Register(c.Context, in)
			if err != nil {
				return failure(service.OpRegister, err)
			}
			printf(c, "Registered %s. Log in with: staybook login -u %s\n", u.Username, u.Username)
			return nil
		},
	}
}
