package report

import (
	"sort"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
)

func sortedKeys(values domain.Row) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
