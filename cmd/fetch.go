package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the incident dataset and store a snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res := newSource(st).Incidents(ctx)
		if res.Warning != "" {
			fmt.Fprintln(os.Stderr, res.Warning)
		}
		if res.FromSnapshot {
			zap.L().Info("served from local snapshot", zap.Int("rows", res.Table.Len()))
		}

		fmt.Printf("%d incident records, %d columns\n", res.Table.Len(), len(res.Table.Columns()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
