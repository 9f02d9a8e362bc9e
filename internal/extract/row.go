package extract

// Row is one record of tabular input: column names in sheet order plus the
// value under each. Readers must preserve the source column order in
// Columns; resolution is first-match-wins over that order, so iterating a
// bare map would make results depend on hash ordering.
type Row struct {
	Columns []string
	Values  map[string]string
}

// NewRow builds a Row from parallel header/value slices, ignoring the
// trailing values of ragged records. A duplicated header keeps its first
// position in the column order and the last value seen under it.
func NewRow(headers, values []string) Row {
	row := Row{
		Columns: make([]string, 0, len(headers)),
		Values:  make(map[string]string, len(headers)),
	}
	for i, h := range headers {
		if h == "" {
			continue
		}
		if _, dup := row.Values[h]; !dup {
			row.Columns = append(row.Columns, h)
		}
		if i < len(values) {
			row.Values[h] = values[i]
		} else {
			row.Values[h] = ""
		}
	}
	return row
}
