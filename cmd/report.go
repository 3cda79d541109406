package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fenix-boyaca/fenix-cli/internal/export"
	"github.com/fenix-boyaca/fenix-cli/internal/geo"
	"github.com/fenix-boyaca/fenix-cli/internal/pipeline"
	"github.com/fenix-boyaca/fenix-cli/internal/schema"
	"github.com/fenix-boyaca/fenix-cli/internal/table"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute the dashboard summaries for a filter selection",
	Long:  "Filters the incident dataset by department and date range, then prints the KPIs, land-cover totals, municipal statistics, and frequency/area correlation. Optionally writes an XLSX report and map statistics.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st := optionalStore(ctx)
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		res := newSource(st).Incidents(ctx)
		if res.Warning != "" {
			fmt.Fprintln(os.Stderr, res.Warning)
		}

		sch := schema.MustLoad()

		opts := pipeline.FilterOptions{}
		regions, _ := cmd.Flags().GetStringSlice("regions")
		if len(regions) > 0 {
			opts.Regions = regions
		} else {
			opts.Regions = pipeline.Regions(res.Table)
		}

		var err error
		if from, _ := cmd.Flags().GetString("from"); from != "" {
			if opts.From, err = time.Parse("2006-01-02", from); err != nil {
				return eris.Wrapf(err, "parse --from %q", from)
			}
		}
		if to, _ := cmd.Flags().GetString("to"); to != "" {
			if opts.To, err = time.Parse("2006-01-02", to); err != nil {
				return eris.Wrapf(err, "parse --to %q", to)
			}
		}

		topN, _ := cmd.Flags().GetInt("top")
		if topN <= 0 {
			topN = cfg.Report.TopN
		}

		sum := pipeline.Compute(res.Table, sch, opts, topN)
		formatSummary(os.Stdout, sum)

		if withMap, _ := cmd.Flags().GetBool("map"); withMap {
			if err := printMapStats(cmd, res.Table, sch, opts); err != nil {
				return err
			}
		}

		if xlsxPath, _ := cmd.Flags().GetString("xlsx"); xlsxPath != "" {
			if err := export.WriteXLSX(xlsxPath, sum); err != nil {
				return err
			}
			fmt.Printf("XLSX report written to %s\n", xlsxPath)
		}

		return nil
	},
}

func printMapStats(cmd *cobra.Command, raw *table.Table, sch *schema.Schema, opts pipeline.FilterOptions) error {
	lookup, err := geo.LoadLookup(cmd.Context(), cfg.Geo.CoordinatesPath)
	if err != nil {
		if eris.Is(err, geo.ErrNoLookup) {
			fmt.Fprintln(os.Stderr, "No hay datos de coordenadas para el mapa.")
			return nil
		}
		return err
	}

	filtered := pipeline.Filter(raw, sch, opts)
	formatHeatMap(os.Stdout, geo.BuildHeatMap(filtered, lookup))
	return nil
}

func init() {
	reportCmd.Flags().StringSlice("regions", nil, "departments to include (default all)")
	reportCmd.Flags().String("from", "", "start date, inclusive (YYYY-MM-DD)")
	reportCmd.Flags().String("to", "", "end date, inclusive (YYYY-MM-DD)")
	reportCmd.Flags().Int("top", 0, "ranking size (default from config)")
	reportCmd.Flags().String("xlsx", "", "write an XLSX report to this path")
	reportCmd.Flags().Bool("map", false, "print map coverage statistics")
	rootCmd.AddCommand(reportCmd)
}

// formatSummary writes the computed dashboard summary as terminal tables.
func formatSummary(out io.Writer, sum *pipeline.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "Incendios:\t%d\n", sum.KPIs.TotalIncendios)
	_, _ = fmt.Fprintf(w, "Hectáreas afectadas:\t%.1f\n", sum.KPIs.TotalHectareas)
	_, _ = fmt.Fprintf(w, "Departamentos:\t%d\n", sum.KPIs.Departamentos)
	if sum.KPIs.MunicipioCritico != "" {
		_, _ = fmt.Fprintf(w, "Municipio crítico:\t%s\n", sum.KPIs.MunicipioCritico)
	}
	_ = w.Flush()

	if len(sum.Coverage) > 0 {
		_, _ = fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "COBERTURA\tHECTÁREAS")
		for _, row := range sum.Coverage {
			_, _ = fmt.Fprintf(w, "%s\t%.1f\n", row.Categoria, row.TotalHectareas)
		}
		_ = w.Flush()
	}

	if len(sum.Municipalities) > 0 {
		_, _ = fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "MUNICIPIO\tINCENDIOS\tTOTAL_HA\tPROMEDIO_HA\tCAUSA")
		for _, row := range sum.Municipalities {
			_, _ = fmt.Fprintf(w, "%s\t%d\t%.1f\t%.1f\t%s\n",
				row.Municipio, row.NumeroIncendios, row.TotalHectareas, row.PromedioHectareas, row.CausaPrincipal)
		}
		_ = w.Flush()
	}

	_, _ = fmt.Fprintln(out)
	if sum.Correlation.Insufficient {
		_, _ = fmt.Fprintln(out, sum.Correlation.Label)
	} else {
		_, _ = fmt.Fprintf(out, "%s (r=%.2f, %d municipios)\n",
			sum.Correlation.Label, sum.Correlation.Coefficient, sum.Correlation.Municipalities)
	}
}

// formatHeatMap writes the map coverage statistics.
func formatHeatMap(out io.Writer, hm *geo.HeatMap) {
	_, _ = fmt.Fprintf(out, "\nMapa: %d de %d municipios georreferenciados\n", hm.Mapped, hm.TotalMunicipios)
	if hm.Mapped == 0 {
		return
	}
	_, _ = fmt.Fprintf(out, "Frecuencia máxima: %d", hm.MaxFrecuencia)
	if hm.Critico != "" {
		_, _ = fmt.Fprintf(out, " (%s)", hm.Critico)
	}
	_, _ = fmt.Fprintf(out, "\nFrecuencia media: %.1f\n", hm.MeanFrecuencia)
}
