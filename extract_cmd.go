package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tripplanner/proposal"
	"tripplanner/schema"
)

// newExtractCommand returns the offline "extract" command: it runs a saved
// model answer through extraction, normalization and call planning and
// prints the result without touching storage.
func newExtractCommand() *cobra.Command {
	var tripID, actorID string

	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Plan the calls a saved model answer would make",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			text, err := io.ReadAll(in)
			if err != nil {
				return err
			}
			return runExtract(cmd.OutOrStdout(), string(text), tripID, actorID)
		},
	}
	cmd.Flags().StringVar(&tripID, "trip", "", "id of the trip the proposal targets")
	cmd.Flags().StringVar(&actorID, "actor", "", "id of the acting user")

	return cmd
}

func runExtract(w io.Writer, text, tripID, actorID string) error {
	parsed, err := proposal.Extract(text)
	if err != nil {
		return err
	}
	p := proposal.Normalize(parsed)

	out := map[string]any{"parsed": p}
	calls, err := proposal.Build(p, tripID, actorID)
	var invalid *schema.ValidationError
	switch {
	case errors.As(err, &invalid):
		out["issues"] = invalid.Issues
	case err != nil:
		return err
	default:
		out["intended_calls"] = calls
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
