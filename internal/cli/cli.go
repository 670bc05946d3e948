// Package cli команды терминального клиента sitectl. Клиент держит одну
// сессию на устройство: токен и выбранный профиль лежат в файле.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/magabrotheeeer/profile-session/internal/routeguard"
	"github.com/magabrotheeeer/profile-session/internal/session"
	"github.com/magabrotheeeer/profile-session/internal/subscription"
	"github.com/magabrotheeeer/profile-session/internal/tokenstore"
)

var (
	// ErrUsage неверные аргументы команды.
	ErrUsage = errors.New("usage")
	// ErrAccessDenied проверка подписки не пропустила пользователя.
	ErrAccessDenied = errors.New("access denied")
)

// WatchFunc подписывается на события сессии и блокируется до отмены ctx.
type WatchFunc func(ctx context.Context, fn func(session.Event)) error

// Env всё, что нужно командам.
type Env struct {
	Out     io.Writer
	Session *session.Session
	Store   tokenstore.Store
	Gate    *subscription.Gate
	Guard   *routeguard.Guard
	Watch   WatchFunc
}

const usage = `usage: sitectl <command> [args]

commands:
  login -email E -password P   sign in and persist the token
  logout                       forget the token and the selected profile
  whoami                       show the current session
  profiles                     list profiles, * marks the active one
  select <id|none>             select a profile or clear the selection
  access                       check dashboard access (subscription), exit 3 if denied
  route <path>                 show the route guard decision for path
  events                       print session events until interrupted
`

// Run выполняет команду args[0].
func Run(ctx context.Context, env Env, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(env.Out, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Fprint(env.Out, usage)
		return nil
	}

	// route не ходит в сеть и не ждёт загрузки сессии
	if cmd == "route" {
		return route(ctx, env, rest)
	}
	if cmd == "events" {
		return watch(ctx, env)
	}

	if _, err := env.Session.Load(ctx); err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	switch cmd {
	case "login":
		return login(ctx, env, rest)
	case "logout":
		redirect := env.Session.Logout(ctx)
		fmt.Fprintf(env.Out, "signed out, next: %s\n", redirect)
		return nil
	case "whoami":
		return whoami(ctx, env)
	case "profiles":
		return profiles(ctx, env)
	case "select":
		return selectProfile(ctx, env, rest)
	case "access":
		return access(ctx, env)
	default:
		fmt.Fprint(env.Out, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func login(ctx context.Context, env Env, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	redirect, err := env.Session.Login(ctx, session.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	st := env.Session.State()
	fmt.Fprintf(env.Out, "signed in as %s, next: %s\n", st.User.Email, redirect)
	return nil
}

func whoami(ctx context.Context, env Env) error {
	st := env.Session.State()
	fmt.Fprintf(env.Out, "state:   %s\n", st.Phase())
	if !st.IsAuthenticated {
		return nil
	}
	fmt.Fprintf(env.Out, "user:    %s (id %d)\n", st.User.Email, st.User.ID)
	if st.ActiveProfile != nil {
		fmt.Fprintf(env.Out, "profile: %s (id %d)\n", st.ActiveProfile.Name, st.ActiveProfile.ID)
	} else {
		fmt.Fprintln(env.Out, "profile: none")
	}
	if exp, ok := tokenstore.Expiry(env.Session.AccessToken(ctx)); ok {
		fmt.Fprintf(env.Out, "expires: %s\n", exp.Local().Format(time.RFC3339))
	}
	return nil
}

func profiles(ctx context.Context, env Env) error {
	list, err := env.Session.Profiles(ctx)
	if err != nil {
		return err
	}

	var active int64 = -1
	if p := env.Session.State().ActiveProfile; p != nil {
		active = p.ID
	}

	tw := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tADDRESS")
	for _, p := range list {
		mark := ""
		if p.ID == active {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", mark, p.ID, p.Name, p.Address)
	}
	return tw.Flush()
}

func selectProfile(ctx context.Context, env Env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: select <id|none>", ErrUsage)
	}

	var id *int64
	if !strings.EqualFold(args[0], "none") {
		v, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: profile id must be a number or none", ErrUsage)
		}
		id = &v
	}

	redirect, err := env.Session.SelectProfile(ctx, id)
	if err != nil {
		return err
	}

	st := env.Session.State()
	switch {
	case st.ActiveProfile != nil:
		fmt.Fprintf(env.Out, "active profile: %s (id %d), next: %s\n", st.ActiveProfile.Name, st.ActiveProfile.ID, redirect)
	case id != nil:
		fmt.Fprintf(env.Out, "profile %d not found, next: %s\n", *id, redirect)
	default:
		fmt.Fprintf(env.Out, "profile selection cleared, next: %s\n", redirect)
	}
	return nil
}

func access(ctx context.Context, env Env) error {
	d := env.Gate.CheckAccess(ctx, env.Session)
	if d.Allowed {
		fmt.Fprintf(env.Out, "allowed (%s)\n", d.Reason)
		return nil
	}
	fmt.Fprintf(env.Out, "denied (%s), next: %s\n", d.Reason, d.Redirect)
	if d.Err != nil {
		return fmt.Errorf("%w: %w", ErrAccessDenied, d.Err)
	}
	return ErrAccessDenied
}

func route(ctx context.Context, env Env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: route <path>", ErrUsage)
	}
	d := env.Guard.Decide(args[0], tokenstore.Present(ctx, env.Store))
	if d.IsRedirect() {
		fmt.Fprintf(env.Out, "redirect %s\n", d.Target)
		return nil
	}
	fmt.Fprintln(env.Out, "allow")
	return nil
}

func watch(ctx context.Context, env Env) error {
	if env.Watch == nil {
		return errors.New("events: rabbitmq url is not configured")
	}
	return env.Watch(ctx, func(e session.Event) {
		line := fmt.Sprintf("%s %-20s epoch=%d user=%d", e.At.Local().Format(time.RFC3339), e.Type, e.Epoch, e.UserID)
		if e.ProfileID != nil {
			line += fmt.Sprintf(" profile=%d", *e.ProfileID)
		}
		fmt.Fprintln(env.Out, line)
	})
}
