package exportdata

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes rows as a header row plus one line per row, stdlib
// encoding/csv — no ecosystem library in the pack adds anything csv.Writer
// doesn't already give a flat row export like this.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
