package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/agencyctl/internal/agencyapi"
	"github.com/wolfeidau/agencyctl/internal/table"
)

// withApp opens the app, resolves the agency and runs fn.
func withApp(ctx context.Context, globals *Globals, fn func(a *app) error) error {
	a, err := globals.open(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.scoped(ctx); err != nil {
		return err
	}
	return fn(a)
}

func runList[T any](ctx context.Context, globals *Globals, list func(a *app) ([]T, error), build func(...table.Option[T]) *table.Table[T], f ListFlags) error {
	return withApp(ctx, globals, func(a *app) error {
		rows, err := list(a)
		if err != nil {
			return err
		}
		return renderList(globals.out(), build(table.WithPageSize[T](f.PageSize)), rows, f)
	})
}

func runShow[T any](ctx context.Context, globals *Globals, what string, id int64, get func(a *app) (*T, error), show func(T) string) error {
	return withApp(ctx, globals, func(a *app) error {
		rec, err := get(a)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("%s %d not found", what, id)
		}
		_, err = fmt.Fprint(globals.out(), show(*rec))
		return err
	})
}

func runCreate[T any, I agencyapi.Input](ctx context.Context, globals *Globals, res func(a *app) *agencyapi.Resource[T, I], f InputFlags, show func(T) string) error {
	in, err := decodeInput[I](f)
	if err != nil {
		return err
	}

	return withApp(ctx, globals, func(a *app) error {
		rec, err := res(a).Create(ctx, in)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(globals.out(), show(*rec))
		return err
	})
}

func runUpdate[T any, I agencyapi.Input](ctx context.Context, globals *Globals, res func(a *app) *agencyapi.Resource[T, I], id int64, f InputFlags, show func(T) string) error {
	in, err := decodeInput[I](f)
	if err != nil {
		return err
	}

	return withApp(ctx, globals, func(a *app) error {
		rec, err := res(a).Update(ctx, id, in)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(globals.out(), show(*rec))
		return err
	})
}

// DeleteFlags confirms a delete.
type DeleteFlags struct {
	Yes bool `help:"Do not ask for confirmation." short:"y"`
}

func runDelete[T any, I agencyapi.Input](ctx context.Context, globals *Globals, res func(a *app) *agencyapi.Resource[T, I], what string, id int64, f DeleteFlags) error {
	return withApp(ctx, globals, func(a *app) error {
		if !f.Yes && !a.confirm(fmt.Sprintf("Delete %s %d? This cannot be undone.", what, id)) {
			fmt.Fprintln(globals.errOut(), "Cancelled.")
			return nil
		}

		if err := res(a).Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(globals.out(), "Deleted %s %d.\n", what, id)
		return nil
	})
}
