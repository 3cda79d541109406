package pipeline

import (
	"github.com/fenix-boyaca/fenix-cli/internal/schema"
	"github.com/fenix-boyaca/fenix-cli/internal/table"
)

// Normalize coerces every declared column to its target type and removes the
// administrative columns. Cells that resist coercion become missing; nothing
// here returns an error. Already-typed cells pass through untouched, so
// Normalize(Normalize(t)) == Normalize(t).
func Normalize(t *table.Table, sch *schema.Schema) *table.Table {
	out := t.Clone()

	for _, col := range sch.Dates {
		coerceColumn(out, col, func(v any) any {
			if ts, ok := coerceDate(v); ok {
				return ts
			}
			return nil
		})
	}

	for _, col := range sch.Times {
		coerceColumn(out, col, func(v any) any {
			if c, ok := coerceClock(v); ok {
				return c
			}
			return nil
		})
	}

	for _, col := range sch.Strings {
		coerceColumn(out, col, func(v any) any {
			if s, ok := coerceString(v); ok {
				return s
			}
			return nil
		})
	}

	for _, col := range sch.Bools {
		coerceColumn(out, col, func(v any) any {
			if b, ok := coerceBool(v); ok {
				return b
			}
			return nil
		})
	}

	for _, col := range sch.Numeric {
		coerceColumn(out, col, func(v any) any {
			if f, ok := coerceFloat(v); ok {
				return f
			}
			return nil
		})
	}

	return out.DropColumns(sch.Drop...)
}

func coerceColumn(t *table.Table, col string, fn func(any) any) {
	if !t.HasColumn(col) {
		return
	}
	for r := range t.Len() {
		v := t.Cell(r, col)
		if v == nil {
			continue
		}
		t.SetCell(r, col, fn(v))
	}
}
