package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agencyctl/cmd/cli/internal/commands"
	"github.com/wolfeidau/agencyctl/internal/logger"
)

var version = "dev"

type CLI struct {
	Login      commands.LoginCmd      `cmd:"" help:"Sign in to the agency API"`
	Logout     commands.LogoutCmd     `cmd:"" help:"Sign out"`
	Whoami     commands.WhoamiCmd     `cmd:"" help:"Show the signed in user and selected agency"`
	Agencies   commands.AgenciesCmd   `cmd:"" help:"List and select agencies"`
	Customers  commands.CustomersCmd  `cmd:"" help:"Manage customers"`
	Businesses commands.BusinessesCmd `cmd:"" help:"Manage businesses"`
	Policies   commands.PoliciesCmd   `cmd:"" help:"Manage policies and their documents"`
	Console    commands.ConsoleCmd    `cmd:"" help:"Open the interactive console"`

	Config    kong.ConfigFlag  `help:"YAML configuration file." placeholder:"FILE"`
	Debug     bool             `help:"Enable debug mode." env:"AGENCYCTL_DEBUG"`
	Server    string           `help:"API server URL." default:"http://localhost:8000" env:"AGENCYCTL_SERVER"`
	StateDir  string           `help:"Directory for session state, defaults to ~/.agencyctl." env:"AGENCYCTL_STATE_DIR"`
	HTTPCache bool             `help:"Cache GET responses." name:"http-cache" env:"AGENCYCTL_HTTP_CACHE"`
	CacheDir  string           `help:"Directory for the HTTP cache, memory when empty." env:"AGENCYCTL_CACHE_DIR"`
	OTel      bool             `help:"Export traces and metrics over OTLP." name:"otel" env:"AGENCYCTL_OTEL"`
	Timeout   time.Duration    `help:"HTTP request timeout, 0 for none." default:"0s" env:"AGENCYCTL_TIMEOUT"`
	Version   kong.VersionFlag `help:"Print the version."`
}

func (c *CLI) globals() *commands.Globals {
	return &commands.Globals{
		Debug:     c.Debug,
		Version:   version,
		Server:    c.Server,
		StateDir:  c.StateDir,
		HTTPCache: c.HTTPCache,
		CacheDir:  c.CacheDir,
		OTel:      c.OTel,
		Timeout:   c.Timeout,
	}
}

func main() {
	// a missing .env file is fine
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	cmd := kong.Parse(&cli, options(ctx)...)

	log.Logger = logger.Setup(cli.Debug)

	err := cmd.Run(cli.globals())
	cmd.FatalIfErrorf(err)
}

func options(ctx context.Context) []kong.Option {
	return []kong.Option{
		kong.Name("agencyctl"),
		kong.Description("Insurance agency admin console."),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Configuration(YAMLLoader, "~/.agencyctl/config.yaml"),
		kong.BindTo(ctx, (*context.Context)(nil)),
	}
}
