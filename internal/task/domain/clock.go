package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeClock turns "9:05", "09:05" or "09:05:00" into "09:05".
func NormalizeClock(s string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 || len(parts[1]) != 2 {
		return "", false
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return "", false
		}
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
