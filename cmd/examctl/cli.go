package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/heartmarshall/examwatch/internal/app"
	"github.com/heartmarshall/examwatch/internal/domain"
	"github.com/heartmarshall/examwatch/internal/service/guard"
	"github.com/heartmarshall/examwatch/internal/service/session"
)

var errUsage = errors.New("usage")

// errNotLoggedIn is returned by protected commands without a valid session.
var errNotLoggedIn = errors.New("not logged in, run: examctl login")

type cli struct {
	app *app.App
	in  io.Reader
	out io.Writer
}

func (c *cli) run(ctx context.Context, cmd string, args []string) error {
	handlers := map[string]func(context.Context, []string) error{
		"login":     c.login,
		"register":  c.register,
		"logout":    c.logout,
		"whoami":    c.whoami,
		"profile":   c.profile,
		"incidents": c.incidents,
		"verify":    c.mutation("verify"),
		"unverify":  c.mutation("unverify"),
		"delete":    c.mutation("delete"),
		"buildings": c.buildings,
		"stats":     c.stats,
		"watch":     c.watch,
	}
	h, ok := handlers[cmd]
	if !ok {
		return errUsage
	}
	return h(ctx, args)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", fs.Name(), err)
	}
	return nil
}

// enter restores the session and evaluates the guard for view.
func (c *cli) enter(ctx context.Context, view guard.View) (guard.Decision, error) {
	if err := c.app.Session.Bootstrap(ctx); err != nil {
		return guard.Decision{}, err
	}
	return guard.Evaluate(c.app.Session.Snapshot(), view), nil
}

// protected fails unless the stored credentials yield an authenticated session.
func (c *cli) protected(ctx context.Context) error {
	d, err := c.enter(ctx, guard.ViewProtected)
	if err != nil {
		return err
	}
	if d.Outcome != guard.Render {
		return errNotLoggedIn
	}
	return nil
}

func (c *cli) readSecret(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// describe renders an operation error with its field errors.
func describe(err error) error {
	var opErr *domain.OperationError
	if !errors.As(err, &opErr) {
		return err
	}
	fields := opErr.FieldErrors()
	if len(fields) == 0 {
		return errors.New(opErr.Message)
	}

	var b strings.Builder
	b.WriteString(opErr.Message)
	for _, fe := range opErr.Fields.Errors {
		fmt.Fprintf(&b, "\n  %s: %s", fe.Field, fe.Message)
	}
	return errors.New(b.String())
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password (prompted when empty)")
	force := fs.Bool("force", false, "log in even when a session exists")
	if err := parse(fs, args); err != nil {
		return err
	}

	if !*force {
		d, err := c.enter(ctx, guard.ViewPublicOnly)
		if err != nil {
			return err
		}
		if d.Outcome == guard.Redirect {
			fmt.Fprintf(c.out, "already logged in as %s\n", c.app.Session.Snapshot().User.Username)
			return nil
		}
	}

	if *password == "" {
		p, err := c.readSecret("password: ")
		if err != nil {
			return err
		}
		*password = p
	}

	if err := c.app.Session.Login(ctx, session.LoginInput{Username: *username, Password: *password}); err != nil {
		return describe(err)
	}
	fmt.Fprintf(c.out, "logged in as %s\n", c.app.Session.Snapshot().User.DisplayName())
	return nil
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	in := session.RegisterInput{}
	fs.StringVar(&in.Username, "username", "", "username")
	fs.StringVar(&in.Email, "email", "", "email address")
	fs.StringVar(&in.Password, "password", "", "password (prompted when empty)")
	fs.StringVar(&in.FirstName, "first", "", "first name")
	fs.StringVar(&in.LastName, "last", "", "last name")
	fs.StringVar(&in.Phone, "phone", "", "phone number")
	avatar := fs.String("avatar", "", "profile picture file")
	if err := parse(fs, args); err != nil {
		return err
	}

	d, err := c.enter(ctx, guard.ViewPublicOnly)
	if err != nil {
		return err
	}
	if d.Outcome == guard.Redirect {
		return errors.New("already logged in, run: examctl logout")
	}

	if in.Password == "" {
		if in.Password, err = c.readSecret("password: "); err != nil {
			return err
		}
	}
	in.PasswordConfirm = in.Password

	if *avatar != "" {
		f, err := os.Open(*avatar)
		if err != nil {
			return fmt.Errorf("open avatar: %w", err)
		}
		defer f.Close()
		in.AvatarName = f.Name()
		in.Avatar = f
	}

	if err := c.app.Session.Register(ctx, in); err != nil {
		return describe(err)
	}
	fmt.Fprintf(c.out, "registered and logged in as %s\n", c.app.Session.Snapshot().User.Username)
	return nil
}

func (c *cli) logout(ctx context.Context, _ []string) error {
	if err := c.app.Session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "logged out")
	return nil
}

func (c *cli) whoami(ctx context.Context, _ []string) error {
	if err := c.protected(ctx); err != nil {
		return err
	}
	printUser(c.out, c.app.Session.Snapshot().User)
	return nil
}

func (c *cli) profile(ctx context.Context, args []string) error {
	fs := newFlagSet("profile")
	var upd domain.ProfileUpdate
	fs.Func("first", "first name", func(v string) error { upd.FirstName = &v; return nil })
	fs.Func("last", "last name", func(v string) error { upd.LastName = &v; return nil })
	fs.Func("email", "email address", func(v string) error { upd.Email = &v; return nil })
	if err := parse(fs, args); err != nil {
		return err
	}

	if err := c.protected(ctx); err != nil {
		return err
	}
	if err := c.app.Session.UpdateProfile(ctx, upd); err != nil {
		return describe(err)
	}
	printUser(c.out, c.app.Session.Snapshot().User)
	return nil
}

func (c *cli) mutation(op string) func(context.Context, []string) error {
	return func(ctx context.Context, args []string) error {
		if len(args) != 1 {
			return errUsage
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("%s: invalid incident id %q", op, args[0])
		}
		if err := c.protected(ctx); err != nil {
			return err
		}

		list := c.app.Incidents()
		switch op {
		case "verify":
			err = list.Verify(ctx, id)
		case "unverify":
			err = list.Unverify(ctx, id)
		default:
			err = list.Delete(ctx, id)
		}
		if err != nil {
			return fmt.Errorf("%s %d: %s", op, id, domain.Message(err, "request failed"))
		}

		fmt.Fprintf(c.out, "incident %d: %s done\n", id, op)
		return nil
	}
}
