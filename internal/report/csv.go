package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// writeCSV writes one sample file and one pass file per sampled satellite.
func writeCSV(ctx context.Context, w *writer) error {
	for _, sr := range w.sampled() {
		if err := ctx.Err(); err != nil {
			return err
		}
		slug := Slug(sr.Satellite.Name)

		err := w.create(fmt.Sprintf("ast_%s_%s.csv", slug, w.suffix), func(out io.Writer) error {
			rows := make([]map[string]any, len(sr.Samples))
			for i, s := range sr.Samples {
				rows[i] = SampleRecord(s)
			}
			return writeRecords(out, SampleColumns, rows)
		})
		if err != nil {
			return err
		}

		err = w.create(fmt.Sprintf("ast_%s_passes_%s.csv", slug, w.suffix), func(out io.Writer) error {
			rows := make([]map[string]any, len(sr.Summaries))
			for i, s := range sr.Summaries {
				rows[i] = PassRecord(i+1, s, w.loc)
			}
			return writeRecords(out, PassColumns, rows)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeRecords(out io.Writer, columns []string, rows []map[string]any) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(columns); err != nil {
		return err
	}
	line := make([]string, len(columns))
	for _, row := range rows {
		for i, c := range columns {
			line[i] = formatCell(row[c])
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatCell renders a record value; nil becomes an empty cell.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
