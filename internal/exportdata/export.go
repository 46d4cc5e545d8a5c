package exportdata

import (
	"context"
	"fmt"
	"io"
)

// Export builds the rows for scope and writes them to w in format — the
// single call the `export` CLI verb drives (§6.1).
func Export(ctx context.Context, st Store, scope Scope, format Format, w io.Writer) error {
	rows, err := BuildRows(ctx, st, scope)
	if err != nil {
		return err
	}
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, rows)
	case FormatExcel:
		return WriteExcel(w, rows)
	default:
		return fmt.Errorf("exportdata: unknown format %q", format)
	}
}
