package gateway

import (
	"strconv"
	"strings"
)

// Helper functions for parsing values

// parseFloat extracts the number from values like "-95dBm", ">=-51dBm" or
// "10.5dB". The first value that parses wins.
func parseFloat(values ...string) float64 {
	for _, v := range values {
		v = trimValue(v)
		if v == "" {
			continue
		}
		if f, err := strconv.ParseFloat(numericPrefix(v), 64); err == nil {
			return f
		}
	}
	return 0
}

func parseInt(values ...string) int64 {
	for _, v := range values {
		v = trimValue(v)
		if v == "" {
			continue
		}
		// Handle hex values
		if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
			if i, err := strconv.ParseInt(v[2:], 16, 64); err == nil {
				return i
			}
		}
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return 0
}

func parseBand(value string) int64 {
	// Handle formats like "3", "B3", "b20", "LTE BAND 3" etc.
	value = strings.ToLower(strings.ReplaceAll(value, " ", ""))
	value = strings.TrimPrefix(value, "lteband")
	value = strings.TrimPrefix(value, "b")
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	return 0
}

func trimValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "N/A" || v == "--" {
		return ""
	}
	v = strings.TrimLeft(v, "<>=")
	// Remove any units or suffixes separated by a space
	return strings.Split(v, " ")[0]
}

// numericPrefix returns the leading signed decimal number of v.
func numericPrefix(v string) string {
	end := 0
	for i, r := range v {
		if (r >= '0' && r <= '9') || r == '.' || ((r == '-' || r == '+') && i == 0) {
			end = i + 1
			continue
		}
		break
	}
	return v[:end]
}
