package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/lamina/pkg/plate"
	"github.com/chazu/lamina/pkg/store"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
)

// snapshotArg returns the snapshot reference at args[i], or store.Latest.
func snapshotArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return store.Latest
}

func loadSnapshot(cmd *cobra.Command, ref string) (store.Snapshot, error) {
	snap, err := st.Get(cmd.Context(), ref)
	if err != nil {
		return store.Snapshot{}, err
	}
	return snap, nil
}

// saveModel stores pm as a child of parent and prints the new snapshot.
// Component warnings are printed instead and nothing is stored.
func saveModel(cmd *cobra.Command, parent, op string, pm plate.PlateModel, warnings []string) error {
	out := cmd.OutOrStdout()
	if len(warnings) > 0 {
		printWarnings(out, warnings)
		return nil
	}
	m, ok := pm.(*plate.Model)
	if !ok {
		return fmt.Errorf("%s: unexpected model type %T", op, pm)
	}
	sum, err := st.Save(cmd.Context(), parent, op, m)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "snapshot %s (%s, %d plates, %d contacts)\n", sum.ID, op, sum.Plates, len(m.Contacts()))
	return nil
}

func printWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
}

// changed returns the flag value when it was set on the command line, nil
// otherwise, so components fall back to their own defaults.
func changed[T any](cmd *cobra.Command, name string, get func(string) (T, error)) *T {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := get(name)
	if err != nil {
		return nil
	}
	return &v
}

// orValue returns p, or a pointer to def when p is nil.
func orValue[T any](p *T, def T) *T {
	if p == nil {
		return &def
	}
	return p
}

// parsePairs parses "0-1,2-3" into plate pairs.
func parsePairs(s string) ([][2]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out [][2]int
	for _, part := range strings.Split(s, ",") {
		a, b, ok := strings.Cut(strings.TrimSpace(part), "-")
		if !ok {
			return nil, fmt.Errorf("invalid pair %q, want a-b", part)
		}
		x, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return nil, fmt.Errorf("invalid pair %q: %w", part, err)
		}
		y, err := strconv.Atoi(strings.TrimSpace(b))
		if err != nil {
			return nil, fmt.Errorf("invalid pair %q: %w", part, err)
		}
		out = append(out, [2]int{x, y})
	}
	return out, nil
}

func fmtVec(v r3.Vec) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}
