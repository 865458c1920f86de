package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agencyctl/cmd/cli/internal/prefs"
	"github.com/wolfeidau/agencyctl/internal/agencyapi"
	"github.com/wolfeidau/agencyctl/internal/client"
	"github.com/wolfeidau/agencyctl/internal/models"
	"github.com/wolfeidau/agencyctl/internal/session"
	"github.com/wolfeidau/agencyctl/internal/telemetry"
)

// ErrNotLoggedIn is returned by commands that need a session.
var ErrNotLoggedIn = errors.New("not logged in, run: agencyctl login")

type Globals struct {
	Debug     bool
	Version   string
	Server    string
	StateDir  string
	HTTPCache bool
	CacheDir  string
	OTel      bool
	Timeout   time.Duration

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (g *Globals) in() io.Reader {
	if g.stdin != nil {
		return g.stdin
	}
	return os.Stdin
}

func (g *Globals) out() io.Writer {
	if g.stdout != nil {
		return g.stdout
	}
	return os.Stdout
}

func (g *Globals) errOut() io.Writer {
	if g.stderr != nil {
		return g.stderr
	}
	return os.Stderr
}

// app is the wiring shared by every command.
type app struct {
	globals *Globals
	state   *prefs.ServerState
	api     *client.Client
	sess    *session.Context
	svc     *agencyapi.Service

	shutdown func(context.Context) error
}

// open wires the client, session and scoped services for globals.Server.
func (g *Globals) open(ctx context.Context, nav session.Navigator, notify session.Notifier) (*app, error) {
	store, err := prefs.NewStore(g.StateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize state store: %w", err)
	}
	state := store.Server(g.Server)

	a := &app{globals: g, state: state, shutdown: func(context.Context) error { return nil }}

	if g.OTel {
		tp, err := telemetry.Start(ctx, telemetry.Config{ServiceName: "agencyctl", Version: g.Version, ServerURL: g.Server})
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize telemetry, continuing without it")
		} else {
			a.shutdown = tp.Shutdown
		}
	}

	a.api, err = client.New(client.Config{
		ServerURL: g.Server,
		Timeout:   g.Timeout,
		Debug:     g.Debug,
		Cookies:   state,
		HTTPCache: g.HTTPCache,
		CacheDir:  g.CacheDir,
		Telemetry: g.OTel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	if nav == nil {
		nav = &cliNavigator{path: session.PathHome}
	}
	if notify == nil {
		notify = &cliNotifier{w: g.errOut()}
	}

	a.sess, err = session.New(a.api, state, nav, notify)
	if err != nil {
		return nil, err
	}

	a.svc, err = agencyapi.New(a.api, a.sess)
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown telemetry")
	}
}

// authenticate restores the session from the persisted cookies.
func (a *app) authenticate(ctx context.Context) error {
	if err := a.sess.Initialize(ctx); err != nil {
		return err
	}
	if !a.sess.Authenticated() {
		return ErrNotLoggedIn
	}
	return nil
}

// scoped authenticates and settles the selected agency.
func (a *app) scoped(ctx context.Context) (models.Agency, error) {
	if err := a.authenticate(ctx); err != nil {
		return models.Agency{}, err
	}
	if _, err := a.sess.FetchAgencies(ctx); err != nil {
		return models.Agency{}, err
	}

	agency, err := a.sess.RequireAgency()
	if err != nil {
		return models.Agency{}, fmt.Errorf("no agency available for %s", a.sess.Principal().DisplayName())
	}

	log.Debug().Int64("agency_id", agency.ID).Str("agency", agency.Name).Msg("using agency")
	return agency, nil
}

// confirm asks a yes/no question on stdin.
func (a *app) confirm(prompt string) bool {
	fmt.Fprintf(a.globals.errOut(), "%s [y/N]: ", prompt)

	line, err := bufio.NewReader(a.globals.in()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// cliNavigator records the view the session moved to.
type cliNavigator struct {
	path string
}

func (n *cliNavigator) Current() string { return n.path }

func (n *cliNavigator) Navigate(path string) {
	n.path = path
	log.Debug().Str("path", path).Msg("navigate")
}

// cliNotifier prints notifications to stderr.
type cliNotifier struct {
	w io.Writer
}

func (n *cliNotifier) Notify(level session.Level, msg string) {
	switch level {
	case session.LevelError:
		// errors are returned and printed by kong
		log.Debug().Str("level", level.String()).Msg(msg)
	case session.LevelWarning:
		fmt.Fprintf(n.w, "warning: %s\n", msg)
	default:
		fmt.Fprintln(n.w, msg)
	}
}
