package report

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

const (
	failColor = "FFFFC7CE"
	warnColor = "FFFFEB9C"
)

// DefaultSheet is the sheet name used when none is configured.
const DefaultSheet = "COI Review"

func fillStyle(color string) *xlsx.Style {
	s := xlsx.NewStyle()
	s.Fill = *xlsx.NewFill("solid", color, color)
	s.ApplyFill = true
	return s
}

// WriteXLSX renders rows to a workbook at path. The header comes from the
// first row's cell names. Failing cells are filled red and warnings yellow.
func WriteXLSX(path, sheetName string, rows []Row) error {
	if sheetName == "" {
		sheetName = DefaultSheet
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(err, "report: add sheet %q", sheetName)
	}

	if len(rows) > 0 {
		header := xlsx.NewStyle()
		header.Font.Bold = true
		header.ApplyFont = true

		hr := sheet.AddRow()
		for _, name := range rows[0].Names() {
			c := hr.AddCell()
			c.SetString(name)
			c.SetStyle(header)
		}
	}

	fail := fillStyle(failColor)
	warn := fillStyle(warnColor)
	for _, row := range rows {
		xr := sheet.AddRow()
		for _, cell := range row {
			xc := xr.AddCell()
			writeCell(xc, cell)
			switch {
			case cell.Failing():
				xc.SetStyle(fail)
			case cell.Warning():
				xc.SetStyle(warn)
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func writeCell(xc *xlsx.Cell, c Cell) {
	if c.Hyperlink != "" {
		xc.SetFormula(fmt.Sprintf(`HYPERLINK("%s","%s")`, escapeFormula(c.Hyperlink), escapeFormula(fmt.Sprint(c.Value))))
		return
	}
	switch v := c.Value.(type) {
	case nil:
		xc.SetString("")
	case float64:
		xc.SetFloatWithFormat(v, "#,##0")
	case int:
		xc.SetInt(v)
	case bool:
		xc.SetString(yesNo(v))
	case string:
		xc.SetString(v)
	default:
		xc.SetString(fmt.Sprint(v))
	}
}

func escapeFormula(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
