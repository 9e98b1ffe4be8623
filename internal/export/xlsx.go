// Package export writes fused extraction results to files estimators can
// actually open.
package export

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/blueprint-cli/internal/model"
)

// WriteXLSX renders a fused document as an XLSX workbook with one tab per
// result category. Empty categories still get a header row so takeoff
// templates that reference the tabs by name keep working.
func WriteXLSX(doc *model.Document, path string) error {
	if doc == nil {
		return eris.New("export: nil document")
	}

	f := xlsx.NewFile()

	if err := writeMetadataSheet(f, doc); err != nil {
		return err
	}
	if err := writeBOMSheet(f, doc); err != nil {
		return err
	}
	if err := writeWeldSheet(f, doc); err != nil {
		return err
	}
	if err := writeDimensionSheet(f, doc); err != nil {
		return err
	}
	if err := writeNotesSheet(f, doc); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addHeaderRow(sheet *xlsx.Sheet, headers []string) {
	row := sheet.AddRow()
	for _, h := range headers {
		row.AddCell().SetString(h)
	}
}

func addStringCells(row *xlsx.Row, values ...string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func floatCell(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func confCell(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func writeMetadataSheet(f *xlsx.File, doc *model.Document) error {
	sheet, err := f.AddSheet("Metadata")
	if err != nil {
		return eris.Wrap(err, "export: add metadata sheet")
	}
	addHeaderRow(sheet, []string{
		"Sheet", "Sheet Number", "Sheet Title", "Project", "Revision",
		"Date", "Scale", "Drawn By", "Checked By",
	})
	for _, s := range doc.Sheets {
		m := s.Metadata
		row := sheet.AddRow()
		addStringCells(row,
			s.SheetID, m.SheetNumber, m.SheetTitle, m.ProjectName,
			m.Revision, m.Date, m.Scale, m.DrawnBy, m.CheckedBy,
		)
	}
	return nil
}

func writeBOMSheet(f *xlsx.File, doc *model.Document) error {
	sheet, err := f.AddSheet("BOM")
	if err != nil {
		return eris.Wrap(err, "export: add bom sheet")
	}
	addHeaderRow(sheet, []string{
		"Sheet", "Mark", "Description", "Profile", "Material",
		"Length (in)", "Qty", "Wt/ft (lb)", "Total Wt (lb)", "Notes",
		"Provider", "Confidence",
	})
	for _, s := range doc.Sheets {
		for _, r := range s.BOMRows {
			row := sheet.AddRow()
			addStringCells(row,
				s.SheetID, r.Mark, r.Description, r.Profile, r.Material,
				floatCell(r.LengthIn), floatCell(r.Quantity),
				floatCell(r.WeightPerFtLb), floatCell(r.TotalWeightLb),
				r.Notes, r.Provider, confCell(r.Confidence),
			)
		}
	}
	return nil
}

func writeWeldSheet(f *xlsx.File, doc *model.Document) error {
	sheet, err := f.AddSheet("Welds")
	if err != nil {
		return eris.Wrap(err, "export: add welds sheet")
	}
	addHeaderRow(sheet, []string{
		"Sheet", "Symbol", "Side", "Process", "Size", "Size Unit",
		"Length", "Pitch", "Contour", "Finish", "Tail",
		"Provider", "Confidence",
	})
	for _, s := range doc.Sheets {
		for _, w := range s.WeldSymbols {
			row := sheet.AddRow()
			addStringCells(row,
				s.SheetID, w.Symbol, w.Side, w.Process,
				floatCell(w.Size), w.SizeUnit,
				floatCell(w.Length), floatCell(w.Pitch),
				w.Contour, w.Finish, w.Tail,
				w.Provider, confCell(w.Confidence),
			)
		}
	}
	return nil
}

func writeDimensionSheet(f *xlsx.File, doc *model.Document) error {
	sheet, err := f.AddSheet("Dimensions")
	if err != nil {
		return eris.Wrap(err, "export: add dimensions sheet")
	}
	addHeaderRow(sheet, []string{
		"Sheet", "Value", "Unit", "Tolerance (in)", "Provider", "Confidence",
	})
	for _, s := range doc.Sheets {
		for _, d := range s.Dimensions {
			row := sheet.AddRow()
			addStringCells(row,
				s.SheetID, d.Value, d.Unit, floatCell(d.ToleranceIn),
				d.Provider, confCell(d.Confidence),
			)
		}
	}
	return nil
}

func writeNotesSheet(f *xlsx.File, doc *model.Document) error {
	sheet, err := f.AddSheet("Notes")
	if err != nil {
		return eris.Wrap(err, "export: add notes sheet")
	}
	addHeaderRow(sheet, []string{"Sheet", "Text", "Provider", "Confidence"})
	for _, s := range doc.Sheets {
		for _, n := range s.Notes {
			row := sheet.AddRow()
			addStringCells(row, s.SheetID, n.Text, n.Provider, confCell(n.Confidence))
		}
	}
	return nil
}
