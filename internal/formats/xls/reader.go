// Package xls reads legacy binary (.xls) workbooks into roster grids.
package xls

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/yamitzky/xlrd-go/xlrd"

	"github.com/klytics/rosterfmt/internal/roster"
)

var (
	// ErrFileNotFound is returned when a source path does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrNotXLS is returned when a source cannot be decoded as a BIFF workbook.
	ErrNotXLS = errors.New("not a valid .xls workbook")
)

// ReadFile reads the first sheet of an .xls file.
func ReadFile(path string) (*roster.Grid, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s — check that the path is correct", ErrFileNotFound, path)
	}

	book, err := xlrd.OpenWorkbook(path, &xlrd.OpenWorkbookOptions{Logfile: io.Discard})
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w: %w", path, ErrNotXLS, err)
	}

	return readFirstSheet(book, filepath.Base(path))
}

// ReadBytes reads the first sheet of an .xls payload held in memory, such as
// a mail attachment.
func ReadBytes(name string, data []byte) (*roster.Grid, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("attachment %s is empty", name)
	}

	tmp, err := os.CreateTemp("", "rosterfmt-*.xls")
	if err != nil {
		return nil, fmt.Errorf("could not stage %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("could not stage %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("could not stage %s: %w", name, err)
	}

	book, err := xlrd.OpenWorkbook(tmp.Name(), &xlrd.OpenWorkbookOptions{
		Logfile:      io.Discard,
		FileContents: data,
	})
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w: %w", name, ErrNotXLS, err)
	}

	return readFirstSheet(book, name)
}

func readFirstSheet(book *xlrd.Book, name string) (*roster.Grid, error) {
	if len(book.SheetNames()) == 0 {
		return nil, fmt.Errorf("%s has no sheets", name)
	}
	sheet, err := book.SheetByIndex(0)
	if err != nil {
		return nil, fmt.Errorf("could not read first sheet of %s: %w", name, err)
	}

	log.Debug().Str("file", name).Str("sheet", sheet.Name).Int("rows", sheet.NRows).Int("cols", sheet.NCols).Msg("read source sheet")

	grid := &roster.Grid{
		Rows:     make([][]any, sheet.NRows),
		Date1904: book.Datemode == 1,
	}
	for r := 0; r < sheet.NRows; r++ {
		row := make([]any, sheet.NCols)
		for c := 0; c < sheet.NCols; c++ {
			row[c] = cellValue(sheet.CellType(r, c), sheet.CellValue(r, c))
		}
		grid.Rows[r] = row
	}
	return grid, nil
}

// cellValue maps an xlrd cell to the roster value set. Dates stay serial
// numbers; column rules decide whether to convert them.
func cellValue(ctype int, v any) any {
	switch ctype {
	case xlrd.XL_CELL_EMPTY, xlrd.XL_CELL_BLANK:
		return ""
	case xlrd.XL_CELL_TEXT:
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	case xlrd.XL_CELL_NUMBER, xlrd.XL_CELL_DATE:
		if f, ok := toFloat(v); ok {
			return f
		}
	case xlrd.XL_CELL_BOOLEAN:
		switch b := v.(type) {
		case bool:
			return b
		case int:
			return b != 0
		case float64:
			return b != 0
		}
	case xlrd.XL_CELL_ERROR:
		switch code := v.(type) {
		case byte:
			if text, ok := xlrd.ErrorTextFromCode[code]; ok {
				return text
			}
		case int:
			if text, ok := xlrd.ErrorTextFromCode[byte(code)]; ok {
				return text
			}
		}
		return "#ERROR"
	}
	if v == nil {
		return ""
	}
	return v
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}
