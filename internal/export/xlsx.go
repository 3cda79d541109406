// Package export writes the dashboard summary tables to an XLSX workbook.
package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/fenix-boyaca/fenix-cli/internal/pipeline"
)

// WriteXLSX writes one workbook with a KPI sheet plus the coverage,
// municipal, and cause tables.
func WriteXLSX(path string, sum *pipeline.Summary) error {
	file := xlsx.NewFile()

	if err := addSummarySheet(file, sum); err != nil {
		return err
	}
	if err := addCoverageSheet(file, sum.Coverage); err != nil {
		return err
	}
	if err := addMunicipalSheet(file, sum.Municipalities); err != nil {
		return err
	}
	if err := addCausesSheet(file, sum.TopCauses); err != nil {
		return err
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addSummarySheet(file *xlsx.File, sum *pipeline.Summary) error {
	sheet, err := file.AddSheet("Resumen")
	if err != nil {
		return eris.Wrap(err, "export: add sheet Resumen")
	}

	addRow(sheet, "Indicador", "Valor")
	addRow(sheet, "Total incendios", strconv.Itoa(sum.KPIs.TotalIncendios))
	addRow(sheet, "Hectáreas afectadas", formatFloat(sum.KPIs.TotalHectareas))
	addRow(sheet, "Departamentos", strconv.Itoa(sum.KPIs.Departamentos))
	addRow(sheet, "Municipio crítico", sum.KPIs.MunicipioCritico)
	addRow(sheet, "Correlación incendios/hectáreas", formatFloat(sum.Correlation.Coefficient))
	addRow(sheet, "Interpretación", sum.Correlation.Label)
	return nil
}

func addCoverageSheet(file *xlsx.File, rows []pipeline.CoverageRow) error {
	sheet, err := file.AddSheet("Coberturas")
	if err != nil {
		return eris.Wrap(err, "export: add sheet Coberturas")
	}

	addRow(sheet, "Categoría", "Total hectáreas")
	for _, row := range rows {
		r := sheet.AddRow()
		r.AddCell().Value = row.Categoria
		r.AddCell().SetFloat(row.TotalHectareas)
	}
	return nil
}

func addMunicipalSheet(file *xlsx.File, rows []pipeline.MunicipalRow) error {
	sheet, err := file.AddSheet("Municipios")
	if err != nil {
		return eris.Wrap(err, "export: add sheet Municipios")
	}

	addRow(sheet, "Municipio", "Incendios", "Total hectáreas", "Promedio hectáreas", "Causa principal")
	for _, row := range rows {
		r := sheet.AddRow()
		r.AddCell().Value = row.Municipio
		r.AddCell().SetInt(row.NumeroIncendios)
		r.AddCell().SetFloat(row.TotalHectareas)
		r.AddCell().SetFloat(row.PromedioHectareas)
		r.AddCell().Value = row.CausaPrincipal
	}
	return nil
}

func addCausesSheet(file *xlsx.File, rows []pipeline.CountRow) error {
	sheet, err := file.AddSheet("Causas")
	if err != nil {
		return eris.Wrap(err, "export: add sheet Causas")
	}

	addRow(sheet, "Causa", "Incendios")
	for _, row := range rows {
		r := sheet.AddRow()
		r.AddCell().Value = row.Name
		r.AddCell().SetInt(row.Count)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().Value = v
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
