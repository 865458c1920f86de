package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/wolfeidau/agencyctl/internal/agencyapi"
	"github.com/wolfeidau/agencyctl/internal/models"
	"github.com/wolfeidau/agencyctl/internal/report"
	"github.com/wolfeidau/agencyctl/internal/views"
)

// PoliciesCmd manages the policies of the selected agency.
type PoliciesCmd struct {
	List           PoliciesListCmd           `cmd:"" default:"withargs" help:"List policies"`
	Show           PoliciesShowCmd           `cmd:"" help:"Show a policy and its documents"`
	Create         PoliciesCreateCmd         `cmd:"" help:"Create a policy"`
	Update         PoliciesUpdateCmd         `cmd:"" help:"Update a policy"`
	Delete         PoliciesDeleteCmd         `cmd:"" help:"Delete a policy"`
	Upload         PoliciesUploadCmd         `cmd:"" help:"Attach a document to a policy"`
	RemoveDocument PoliciesRemoveDocumentCmd `cmd:"" name:"remove-document" help:"Detach a document from a policy"`
	Renewal        PoliciesRenewalCmd        `cmd:"" help:"Generate an AI renewal comparison"`
}

func policies(a *app) *agencyapi.Resource[models.Policy, models.PolicyInput] {
	return a.svc.Policies
}

func showPolicy(p models.Policy) string { return views.Policy(p, 0) }

type PoliciesListCmd struct {
	Business int64 `help:"Only list the policies of this business."`
	ListFlags
}

func (c *PoliciesListCmd) Run(ctx context.Context, globals *Globals) error {
	return runList(ctx, globals, func(a *app) ([]models.Policy, error) {
		if c.Business > 0 {
			return a.svc.BusinessPolicies(ctx, c.Business)
		}
		return a.svc.Policies.List(ctx)
	}, views.Policies, c.ListFlags)
}

type PoliciesShowCmd struct {
	ID int64 `arg:"" help:"Policy ID"`
}

func (c *PoliciesShowCmd) Run(ctx context.Context, globals *Globals) error {
	return runShow(ctx, globals, "policy", c.ID, func(a *app) (*models.Policy, error) {
		return a.svc.Policies.Get(ctx, c.ID)
	}, showPolicy)
}

type PoliciesCreateCmd struct {
	InputFlags
}

func (c *PoliciesCreateCmd) Run(ctx context.Context, globals *Globals) error {
	return runCreate(ctx, globals, policies, c.InputFlags, showPolicy)
}

type PoliciesUpdateCmd struct {
	ID int64 `arg:"" help:"Policy ID"`
	InputFlags
}

func (c *PoliciesUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	return runUpdate(ctx, globals, policies, c.ID, c.InputFlags, showPolicy)
}

type PoliciesDeleteCmd struct {
	ID int64 `arg:"" help:"Policy ID"`
	DeleteFlags
}

func (c *PoliciesDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	return runDelete(ctx, globals, policies, "policy", c.ID, c.DeleteFlags)
}

type PoliciesUploadCmd struct {
	ID          int64  `arg:"" help:"Policy ID"`
	File        string `arg:"" type:"existingfile" help:"Document to upload (PDF, PNG, JPEG, Word or Excel, at most 10MB)"`
	Name        string `help:"Document name."`
	Description string `help:"Document description."`
}

func (c *PoliciesUploadCmd) Run(ctx context.Context, globals *Globals) error {
	info, err := os.Stat(c.File)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	if info.Size() > agencyapi.MaxUploadSize {
		return agencyapi.ErrFileTooLarge
	}

	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	upload := agencyapi.Upload{FileName: c.File, Data: data, Name: c.Name, Description: c.Description}
	if _, err := agencyapi.CheckUpload(upload); err != nil {
		return err
	}

	return withApp(ctx, globals, func(a *app) error {
		if err := a.svc.UploadDocument(ctx, c.ID, upload); err != nil {
			return err
		}
		fmt.Fprintln(globals.out(), "Document uploaded successfully.")
		return nil
	})
}

type PoliciesRemoveDocumentCmd struct {
	ID         int64 `arg:"" help:"Policy ID"`
	DocumentID int64 `arg:"" help:"Document ID"`
	DeleteFlags
}

func (c *PoliciesRemoveDocumentCmd) Run(ctx context.Context, globals *Globals) error {
	return withApp(ctx, globals, func(a *app) error {
		if !c.Yes && !a.confirm(fmt.Sprintf("Remove document %d from policy %d?", c.DocumentID, c.ID)) {
			fmt.Fprintln(globals.errOut(), "Cancelled.")
			return nil
		}
		if err := a.svc.RemoveDocument(ctx, c.ID, c.DocumentID); err != nil {
			return err
		}
		fmt.Fprintln(globals.out(), "Document removed successfully.")
		return nil
	})
}

type PoliciesRenewalCmd struct {
	ID       int64  `arg:"" help:"Policy ID"`
	Provider string `help:"AI provider." enum:"openai,anthropic" default:"openai"`
	Raw      bool   `help:"Render without terminal styling."`
	Style    string `help:"Glamour style (dark, light, notty); detected from the terminal when empty."`
	Width    int    `help:"Word wrap width." default:"80"`
}

func (c *PoliciesRenewalCmd) Run(ctx context.Context, globals *Globals) error {
	style := c.Style
	if c.Raw {
		style = "notty"
	}

	r, err := report.NewRenderer(report.Options{Width: c.Width, Style: style})
	if err != nil {
		return err
	}

	return withApp(ctx, globals, func(a *app) error {
		fmt.Fprintf(globals.errOut(), "Generating renewal comparison with %s...\n", c.Provider)

		rc, err := a.svc.GenerateRenewalComparison(ctx, c.ID, c.Provider)
		if err != nil {
			return err
		}

		out, err := r.Comparison(rc)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(globals.out(), out)
		return err
	})
}
