package services

import (
	"slices"
	"strconv"
	"strings"
)

// sortBlankKeys orders blank ids numerically when both are numbers.
func sortBlankKeys(keys []string) {
	slices.SortFunc(keys, func(a, b string) int {
		ai, errA := strconv.Atoi(a)
		bi, errB := strconv.Atoi(b)
		if errA == nil && errB == nil {
			return ai - bi
		}
		return strings.Compare(a, b)
	})
}
