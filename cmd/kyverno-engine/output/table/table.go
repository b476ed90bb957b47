package table

import (
	"github.com/aquilax/truncate"
)

// messageLimit bounds the message column of compact rows
const messageLimit = 80

type Table struct {
	RawRows []Row
}

func (t *Table) AddFailed(rows ...Row) {
	for _, row := range rows {
		if row.isFailure {
			t.RawRows = append(t.RawRows, row)
		}
	}
}

func (t *Table) Add(rows ...Row) {
	t.RawRows = append(t.RawRows, rows...)
}

// Rows returns the printable rows, compact rows carry a truncated message
func (t *Table) Rows(detailed bool) interface{} {
	if detailed {
		return t.RawRows
	}
	var rows []RowCompact
	for _, row := range t.RawRows {
		compact := row.RowCompact
		compact.Message = truncate.Truncate(row.Message, messageLimit, "...", truncate.PositionEnd)
		rows = append(rows, compact)
	}
	return rows
}

type RowCompact struct {
	isFailure bool
	ID        int    `header:"id"`
	Policy    string `header:"policy"`
	Rule      string `header:"rule"`
	Resource  string `header:"resource"`
	Result    string `header:"result"`
	Message   string `header:"message"`
}

type Row struct {
	RowCompact `header:"inline"`
	Type       string `header:"type"`
	Path       string `header:"path"`
}

// NewRow creates a row, failures can be selected with AddFailed
func NewRow(id int, policy, rule, resource, result, message string, failure bool) Row {
	return Row{
		RowCompact: RowCompact{
			isFailure: failure,
			ID:        id,
			Policy:    policy,
			Rule:      rule,
			Resource:  resource,
			Result:    result,
			Message:   message,
		},
	}
}
