package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfeidau/agencyctl/internal/session"
)

type LoginCmd struct {
	Username string `arg:"" optional:"" help:"Username, prompted when empty"`
	Password string `help:"Password, prompted when empty" env:"AGENCYCTL_PASSWORD"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	reader := bufio.NewReader(globals.in())

	username := strings.TrimSpace(l.Username)
	if username == "" {
		fmt.Fprint(globals.errOut(), "Username: ")
		line, _ := reader.ReadString('\n')
		username = strings.TrimSpace(line)
	}

	password := l.Password
	if password == "" {
		fmt.Fprint(globals.errOut(), "Password: ")
		line, _ := reader.ReadString('\n')
		password = strings.TrimRight(line, "\r\n")
	}

	if username == "" || password == "" {
		return errors.New("username and password are required")
	}

	a, err := globals.open(ctx, &cliNavigator{path: session.PathSignIn}, nil)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.sess.Login(ctx, username, password); err != nil {
		return err
	}

	agencies, err := a.sess.FetchAgencies(ctx)
	if err != nil {
		return err
	}

	if sel := a.sess.SelectedAgency(); sel != nil {
		fmt.Fprintf(globals.out(), "Signed in as %s, agency %s (%d of %d).\n",
			a.sess.Principal().DisplayName(), sel.Name, sel.ID, len(agencies))
	} else {
		fmt.Fprintf(globals.out(), "Signed in as %s, no agencies available.\n", a.sess.Principal().DisplayName())
	}
	return nil
}

type LogoutCmd struct{}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.open(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer a.close()

	// the local session is cleared even when the request fails
	_ = a.sess.Logout(ctx)
	return nil
}

type WhoamiCmd struct{}

func (w *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.open(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer a.close()

	agency, err := a.scoped(ctx)
	if err != nil {
		return err
	}

	p := a.sess.Principal()
	fmt.Fprintf(globals.out(), "User:   %s\n", p.DisplayName())
	if p.Email != "" {
		fmt.Fprintf(globals.out(), "Email:  %s\n", p.Email)
	}
	fmt.Fprintf(globals.out(), "Agency: %s (%d)\n", agency.Name, agency.ID)
	if role := agency.RoleName(); role != "" {
		fmt.Fprintf(globals.out(), "Role:   %s\n", role)
	}
	fmt.Fprintf(globals.out(), "Server: %s\n", globals.Server)
	return nil
}
