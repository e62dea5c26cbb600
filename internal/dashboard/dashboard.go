// Package dashboard is a terminal browser over the cached job market data.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/amishk599/jobfloor/internal/config"
	"github.com/amishk599/jobfloor/internal/model"
)

// Run loops picker -> loader -> board until the user quits.
// It only reads from the store; nothing is fetched.
func Run(st model.Store, categories []config.CategoryConfig, now func() time.Time) error {
	if len(categories) == 0 {
		return fmt.Errorf("%w: no categories configured", model.ErrInvalidConfiguration)
	}

	cursor := 0
	for {
		date := model.DateKey(now())
		idx, err := runPicker(categories, date, cursor)
		if err != nil {
			return fmt.Errorf("category picker: %w", err)
		}
		if idx == pickerQuit {
			return nil
		}
		cursor = idx
		c := categories[idx]

		snap, err := runLoader(c.Label, func(ctx context.Context) (Snapshot, error) {
			return LoadSnapshot(ctx, st, c, date)
		})
		if err != nil {
			return err
		}

		quit, err := runBoard(snap)
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		if quit {
			return nil
		}
	}
}
