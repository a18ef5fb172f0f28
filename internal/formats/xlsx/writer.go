package xlsx

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/klytics/rosterfmt/internal/roster"
)

// TableStyle is the built-in table style applied to every declared table.
const TableStyle = "TableStyleMedium9"

// Auto-sized columns are clamped to this range.
const (
	minAutoWidth = 6
	maxAutoWidth = 60
)

const defaultDateFormat = "yyyy-mm-dd"

// Props are the document properties stamped on a written workbook.
type Props struct {
	Title   string
	Creator string
	// ID identifies the run that produced the workbook. A random UUID is used when empty.
	ID string
}

type styleKey struct {
	numFmt string
	align  roster.Align
}

// WriteFile builds a workbook from sheets, in order, and saves it to path.
// Nothing is written unless every sheet builds cleanly.
func WriteFile(sheets []*roster.Sheet, path string, props Props) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	w := &writer{f: f, styles: make(map[styleKey]int), tables: make(map[string]bool)}
	for i, sheet := range sheets {
		if err := w.addSheet(i, sheet); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := w.setProps(props); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create output directory %s: %w", dir, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("could not save %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("sheets", len(sheets)).Msg("workbook written")
	return nil
}

type writer struct {
	f      *excelize.File
	styles map[styleKey]int
	tables map[string]bool
}

func (w *writer) addSheet(i int, sheet *roster.Sheet) error {
	name := sheet.Name
	if name == "" {
		name = fmt.Sprintf("Sheet%d", i+1)
	}

	if i == 0 {
		if err := w.f.SetSheetName(w.f.GetSheetName(0), name); err != nil {
			return fmt.Errorf("could not rename sheet: %w", err)
		}
	} else {
		if _, err := w.f.NewSheet(name); err != nil {
			return fmt.Errorf("could not create sheet %q: %w", name, err)
		}
	}

	for r, row := range sheet.Rows {
		for c, cell := range row {
			if err := w.setCell(name, c+1, r+1, cell); err != nil {
				return err
			}
		}
	}

	if err := w.setWidths(name, sheet); err != nil {
		return err
	}

	if sheet.Table != nil {
		tableName := w.tableName(name)
		if err := w.f.AddTable(name, &excelize.Table{
			Range:     sheet.Table.Ref(),
			Name:      tableName,
			StyleName: TableStyle,
		}); err != nil {
			return fmt.Errorf("could not add table %s to sheet %q: %w", sheet.Table.Ref(), name, err)
		}
	}

	if sheet.Freeze != "" {
		if err := w.freeze(name, sheet.Freeze); err != nil {
			return err
		}
	}

	log.Debug().Str("sheet", name).Int("rows", sheet.NRows()).Int("cols", sheet.NCols()).Msg("sheet built")
	return nil
}

func (w *writer) setCell(sheet string, col, row int, cell roster.Cell) error {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("invalid cell coordinates: %w", err)
	}

	value := cell.Value
	if value == nil {
		value = ""
	}
	if s, ok := value.(string); ok && s == "" {
		// leave blank cells out of the sheet XML entirely
		return nil
	}
	if err := w.f.SetCellValue(sheet, ref, value); err != nil {
		return fmt.Errorf("could not set cell %s: %w", ref, err)
	}

	numFmt := cell.NumberFormat
	if _, ok := value.(time.Time); ok && numFmt == "" {
		numFmt = defaultDateFormat
	}
	if numFmt == "" && cell.Align == roster.AlignDefault {
		return nil
	}

	style, err := w.style(styleKey{numFmt: numFmt, align: cell.Align})
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(sheet, ref, ref, style); err != nil {
		return fmt.Errorf("could not style cell %s: %w", ref, err)
	}
	return nil
}

func (w *writer) style(key styleKey) (int, error) {
	if id, ok := w.styles[key]; ok {
		return id, nil
	}
	s := &excelize.Style{}
	if key.numFmt != "" {
		numFmt := key.numFmt
		s.CustomNumFmt = &numFmt
	}
	if key.align != roster.AlignDefault {
		s.Alignment = &excelize.Alignment{Horizontal: string(key.align)}
	}
	id, err := w.f.NewStyle(s)
	if err != nil {
		return 0, fmt.Errorf("could not create style %q/%s: %w", key.numFmt, key.align, err)
	}
	w.styles[key] = id
	return id, nil
}

func (w *writer) setWidths(sheet string, s *roster.Sheet) error {
	for c, format := range s.Columns {
		width := format.Width
		if format.AutoSize || width <= 0 {
			width = autoWidth(s, c)
		}
		col := roster.ColumnLetter(c)
		if err := w.f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("could not set width of column %s: %w", col, err)
		}
	}
	return nil
}

// autoWidth sizes column c to its longest rendered value.
func autoWidth(s *roster.Sheet, c int) float64 {
	longest := 0
	for _, row := range s.Rows {
		if c >= len(row) {
			continue
		}
		if n := utf8.RuneCountInString(roster.CellText(row[c].Value)); n > longest {
			longest = n
		}
	}
	width := float64(longest + 2)
	if width < minAutoWidth {
		width = minAutoWidth
	}
	if width > maxAutoWidth {
		width = maxAutoWidth
	}
	return width
}

// freeze splits the sheet so everything above and left of topLeft stays put.
func (w *writer) freeze(sheet, topLeft string) error {
	col, row, err := excelize.CellNameToCoordinates(topLeft)
	if err != nil {
		return fmt.Errorf("invalid freeze cell %q: %w", topLeft, err)
	}
	xSplit, ySplit := col-1, row-1
	if xSplit == 0 && ySplit == 0 {
		return nil
	}

	pane := "bottomRight"
	switch {
	case xSplit == 0:
		pane = "bottomLeft"
	case ySplit == 0:
		pane = "topRight"
	}
	if err := w.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      xSplit,
		YSplit:      ySplit,
		TopLeftCell: topLeft,
		ActivePane:  pane,
	}); err != nil {
		return fmt.Errorf("could not freeze panes at %s on sheet %q: %w", topLeft, sheet, err)
	}
	return nil
}

// tableName derives a workbook-unique table name from a sheet name.
func (w *writer) tableName(sheet string) string {
	base := TableName(sheet)
	name := base
	for n := 2; w.tables[strings.ToLower(name)]; n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	w.tables[strings.ToLower(name)] = true
	return name
}

// TableName turns a sheet name into a valid table name: letters, digits and
// underscores, never starting with a digit.
func TableName(sheet string) string {
	var b strings.Builder
	for _, r := range sheet {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "_" + name
	}
	// single letters and cell-like names such as "R1" or "AB12" are reserved
	if _, _, err := excelize.CellNameToCoordinates(name); err == nil || len(name) == 1 {
		name = "T_" + name
	}
	return name
}

func (w *writer) setProps(props Props) error {
	creator := props.Creator
	if creator == "" {
		creator = "rosterfmt"
	}
	id := props.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if err := w.f.SetDocProps(&excelize.DocProperties{
		Creator:        creator,
		LastModifiedBy: creator,
		Title:          props.Title,
		Identifier:     id,
		Created:        now,
		Modified:       now,
	}); err != nil {
		return fmt.Errorf("could not set document properties: %w", err)
	}
	return nil
}
