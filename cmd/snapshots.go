package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fenix-boyaca/fenix-cli/internal/store"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored dataset snapshots",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		snaps, err := st.ListSnapshots(ctx, cfg.Socrata.DatasetID, limit)
		if err != nil {
			return eris.Wrap(err, "snapshots list")
		}

		if len(snaps) == 0 {
			fmt.Fprintln(os.Stderr, "No snapshots stored.")
			return nil
		}

		formatSnapshots(os.Stdout, snaps)
		return nil
	},
}

func init() {
	snapshotsCmd.Flags().Int("limit", 20, "max number of snapshots to display")
	rootCmd.AddCommand(snapshotsCmd)
}

// formatSnapshots writes a tabular list of snapshots to w, newest first.
func formatSnapshots(out io.Writer, snaps []store.Snapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDATASET\tFETCHED\tROWS")
	_, _ = fmt.Fprintln(w, "--\t-------\t-------\t----")
	for _, s := range snaps {
		id := s.ID
		if len(id) > 8 {
			id = id[:8]
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			id,
			s.DatasetID,
			s.FetchedAt.Format("2006-01-02 15:04"),
			s.RowCount,
		)
	}
	_ = w.Flush()
}
