package google

import (
	"fmt"
	"strings"

	"cobrancas/internal/core"
	"cobrancas/internal/normalize"
)

// parseRows converts a values matrix (as returned by Sheets API) into the
// header keys and one record per data row. Empty cells are left out of the
// record so the normalizer can fall through to the next alias. Rows with no
// values are skipped but still count towards row positions.
func parseRows(values [][]any) ([]string, []core.RawRecord) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	records := make([]core.RawRecord, 0, len(values)-1)
	for _, row := range values[1:] {
		rec := core.RawRecord{}
		for i, v := range row {
			key := safeGet(headers, i)
			if key == "" {
				continue
			}
			if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
				continue
			}
			rec[key] = v
		}
		records = append(records, rec)
	}
	return headers, records
}

// buildRow lays out rec following headers. A header that is a historical
// alias receives the value of its field's canonical key.
func buildRow(headers []string, rec core.RawRecord) []any {
	row := make([]any, len(headers))
	for i, h := range headers {
		if v, ok := rec[h]; ok {
			row[i] = v
			continue
		}
		row[i] = ""
		for _, f := range normalize.Fields {
			if containsKey(f.Keys, h) {
				if v, ok := rec[f.Keys[0]]; ok {
					row[i] = v
				}
				break
			}
		}
	}
	return row
}

// columnName returns the A1 column letters for a zero-based index.
func columnName(idx int) string {
	name := ""
	for idx >= 0 {
		name = string(rune('A'+idx%26)) + name
		idx = idx/26 - 1
	}
	return name
}

func containsKey(keys []string, k string) bool {
	for _, key := range keys {
		if key == k {
			return true
		}
	}
	return false
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
