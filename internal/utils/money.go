package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatPrice renders a USD price with thousand separators; cents are only
// shown when present, e.g. $1,497 and $397.50.
func FormatPrice(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	cents := int64(math.Round(amount * 100))
	whole, frac := cents/100, cents%100
	if frac == 0 {
		return fmt.Sprintf("%s$%s", sign, formatThousand(whole))
	}
	return fmt.Sprintf("%s$%s.%02d", sign, formatThousand(whole), frac)
}

func formatThousand(n int64) string {
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
