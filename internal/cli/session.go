package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// ListProfiles prints the stored profile ids.
func (a *App) ListProfiles(ctx context.Context, out io.Writer) error {
	ids, err := a.Sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing profiles: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "No profiles found.")
		return nil
	}
	fmt.Fprintln(out, "Profiles:")
	for _, id := range ids {
		fmt.Fprintln(out, "- "+id)
	}
	return nil
}

// InspectProfile prints a stored profile as indented JSON.
func (a *App) InspectProfile(ctx context.Context, id string, out io.Writer) error {
	p, err := a.Sessions.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("error loading profile '%s': %w", id, err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// RemoveProfiles deletes every id, reporting each failure.
func (a *App) RemoveProfiles(ctx context.Context, ids []string, out io.Writer) error {
	var failed int
	for _, id := range ids {
		if err := a.Sessions.Delete(ctx, id); err != nil {
			fmt.Fprintf(out, "Error removing '%s': %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "Removed profile '%s'\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d profiles could not be removed", failed, len(ids))
	}
	return nil
}
