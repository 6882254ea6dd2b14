package ir

// Cell is one column of a fetched row. Valid is false for SQL NULL.
type Cell struct {
	Name  string
	Text  string
	Valid bool
}

// Row is one fetched result row: columns in the order the backend returned them.
type Row []Cell

// Lookup returns the cell for the named column.
func (r Row) Lookup(name string) (Cell, bool) {
	for _, c := range r {
		if c.Name == name {
			return c, true
		}
	}
	return Cell{}, false
}

// TextRow builds a Row of non-NULL cells from alternating name/text pairs.
// Intended for tests.
func TextRow(pairs ...string) Row {
	row := make(Row, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		row = append(row, Cell{Name: pairs[i], Text: pairs[i+1], Valid: true})
	}
	return row
}
