// Package fields turns free-text hardware values into normalized units and
// resolves logical fields across an asset's vmInfo, additionalData and specs.
package fields

import (
	"math"
	"strconv"
	"strings"
)

// ExtractNumericValue returns the first run of ASCII digits in text, or 0. A run
// too large for an int saturates at math.MaxInt.
func ExtractNumericValue(text string) int {
	start := -1
	for i := 0; i < len(text); i++ {
		isDigit := text[i] >= '0' && text[i] <= '9'
		if isDigit && start < 0 {
			start = i
		}
		if !isDigit && start >= 0 {
			return atoi(text[start:i])
		}
	}
	if start < 0 {
		return 0
	}
	return atoi(text[start:])
}

func atoi(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		// Overflow only; the run is all digits.
		return math.MaxInt
	}
	return n
}

// scale multiplies n by factor, saturating at math.MaxInt.
func scale(n, factor int) int {
	if n > math.MaxInt/factor {
		return math.MaxInt
	}
	return n * factor
}

// ConvertRAMToMB reads a memory size. "GB" (any case) multiplies by 1024, anything
// else is taken as MB. There is no TB case: "2TB" yields 2.
func ConvertRAMToMB(text string) int {
	n := ExtractNumericValue(text)
	if strings.Contains(strings.ToLower(text), "gb") {
		return scale(n, 1024)
	}
	return n
}

// ConvertDiskToMB reads a storage size, accepting GB and TB suffixes; otherwise MB.
func ConvertDiskToMB(text string) int {
	n := ExtractNumericValue(text)
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "tb"):
		return scale(n, 1024*1024)
	case strings.Contains(lower, "gb"):
		return scale(n, 1024)
	default:
		return n
	}
}
