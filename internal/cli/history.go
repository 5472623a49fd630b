package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/qflip/internal/presentation/tui"
	"github.com/aretw0/qflip/pkg/domain"
	"github.com/aretw0/qflip/pkg/ports"
)

// ErrNoStore is returned by history when persistence is disabled.
var ErrNoStore = errors.New("no run store configured (use --store memory|file|redis)")

// ShowHistory prints every stored run, or the summary of one when id is set.
func ShowHistory(ctx context.Context, store ports.RunStore, id string, out io.Writer) error {
	if store == nil {
		return ErrNoStore
	}
	render := tui.NewRenderer()

	var markdown string
	if id != "" {
		run, err := store.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("run %s: %w", id, err)
		}
		markdown = tui.SummaryMarkdown(run)
	} else {
		ids, err := store.List(ctx)
		if err != nil {
			return err
		}
		runs := make([]*domain.Run, 0, len(ids))
		for _, id := range ids {
			run, err := store.Load(ctx, id)
			if errors.Is(err, domain.ErrRunNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("run %s: %w", id, err)
			}
			runs = append(runs, run)
		}
		markdown = tui.HistoryMarkdown(runs)
	}

	text, err := render(markdown)
	if err != nil {
		text = markdown
	}
	fmt.Fprint(out, text)
	return nil
}
