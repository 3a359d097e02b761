package main

import (
	"fmt"
	"strings"

	"minidb/pkg/session"
	"minidb/pkg/tuple"
)

// formatResult renders one statement result: a single confirmation line
// for mutations, tab-separated rows with an "N rows" footer for selects,
// NULL for null values, and a prefixed error line for failures.
func formatResult(res session.Result) string {
	switch res.Kind {
	case session.ResultTableCreated:
		return "Table created\n"
	case session.ResultIndexCreated:
		return "Index created\n"
	case session.ResultRowInserted:
		return "1 row inserted\n"
	case session.ResultTxnStarted:
		return "Transaction started\n"
	case session.ResultTxnCommitted:
		return "Transaction committed\n"
	case session.ResultTxnAborted:
		return "Transaction aborted\n"
	case session.ResultSelect:
		var sb strings.Builder
		for _, row := range res.Rows {
			sb.WriteString(formatRow(row))
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d rows\n", len(res.Rows))
		return sb.String()
	case session.ResultError:
		if res.Origin == session.OriginParse {
			return fmt.Sprintf("Parse error: %v\n", res.Err)
		}
		return fmt.Sprintf("Error: %v\n", res.Err)
	default:
		return ""
	}
}

func formatRow(t *tuple.Tuple) string {
	parts := make([]string, len(t.Values))
	for i, v := range t.Values {
		parts[i] = v.String()
	}
	return strings.Join(parts, "\t")
}
