package google

import (
	"fmt"
	"strings"
)

func toStrings(in []interface{}) []string {
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

// findRow returns the zero-based index of the row whose id column equals
// id, or -1. The id column is located through the header row; a sheet
// without an "ID" header is searched in column A.
func findRow(values [][]interface{}, id string) int {
	if len(values) == 0 || strings.TrimSpace(id) == "" {
		return -1
	}
	col := indexOf(toStrings(values[0]), "ID")
	start := 1
	if col == -1 {
		col = 0
		start = 0
	}
	for i := start; i < len(values); i++ {
		if safeGet(toStrings(values[i]), col) == id {
			return i
		}
	}
	return -1
}
