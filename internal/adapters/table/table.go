// Package table reads and writes the pipeline's CSV tables.
//
// Input files may be UTF-8 (with or without BOM) or Shift_JIS, the
// encoding spreadsheet exports of the race tables use. Output is UTF-8
// with a BOM so the files open cleanly in the same spreadsheets.
package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding/japanese"

	"github.com/okian/motorgen/internal/domain/model"
)

var bom = []byte("\xef\xbb\xbf")

// gota marks missing string cells with this literal
const naCell = "NaN"

// Encoding names reported by Decode.
const (
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "shift_jis"
)

// Decode returns data as UTF-8 without a BOM. Bytes that are not valid
// UTF-8 are read as Shift_JIS.
func Decode(data []byte) ([]byte, string, error) {
	if utf8.Valid(data) {
		return bytes.TrimPrefix(data, bom), EncodingUTF8, nil
	}
	out, err := japanese.ShiftJIS.NewDecoder().Bytes(data)
	if err != nil {
		return nil, "", err
	}
	return out, EncodingShiftJIS, nil
}

// Read loads a CSV file. The table is named after the file.
func Read(path string) (*model.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadTable, path, err)
	}
	return Parse(data, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

// Parse decodes CSV bytes into a string table. Every column is read as
// text; numeric interpretation is left to the stages.
func Parse(data []byte, name string) (*model.Table, error) {
	text, _, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadTable, name, err)
	}
	df := dataframe.ReadCSV(bytes.NewReader(text),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		header, herr := headerOnly(text)
		if herr != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrReadTable, name, df.Err)
		}
		return model.NewTable(name, header...), nil
	}
	recs := df.Records()
	t := model.NewTable(name, recs[0]...)
	for _, rec := range recs[1:] {
		for i, cell := range rec {
			if cell == naCell {
				rec[i] = ""
			}
		}
		t.Append(rec)
	}
	return t, nil
}

// headerOnly reads the header of a CSV without data rows.
func headerOnly(text []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(text))
	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	if _, err := r.Read(); err != io.EOF {
		return nil, fmt.Errorf("%w: not a header-only table", ErrBadRecord)
	}
	return header, nil
}

// Write stores t at path, creating parent directories. The file is
// written to a temporary name first and renamed into place.
func Write(path string, t *model.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w %s: %w", ErrWriteTable, path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrWriteTable, path, err)
	}
	defer os.Remove(tmp.Name())
	if err := WriteTo(tmp, t); err != nil {
		tmp.Close()
		return fmt.Errorf("%w %s: %w", ErrWriteTable, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w %s: %w", ErrWriteTable, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w %s: %w", ErrWriteTable, path, err)
	}
	return nil
}

// WriteTo writes t as BOM-prefixed UTF-8 CSV.
func WriteTo(w io.Writer, t *model.Table) error {
	if _, err := w.Write(bom); err != nil {
		return err
	}
	if t.Len() == 0 {
		cw := csv.NewWriter(w)
		if err := cw.Write(t.Columns); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	}
	records := make([][]string, 0, t.Len()+1)
	records = append(records, t.Columns)
	records = append(records, t.Rows...)
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return df.Err
	}
	return df.WriteCSV(w)
}
