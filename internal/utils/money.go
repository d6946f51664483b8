package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// Currency is the single currency the platform sells in.
const Currency = "ETB"

// FormatBirr renders an integer fare with thousand separators, e.g. "1,600 ETB".
func FormatBirr(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%s %s", sign, formatThousand(amount), Currency)
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
