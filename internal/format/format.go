package format

import (
	"fmt"
	"strings"
)

// zero-decimal currencies are stored in major units
var zeroDecimal = map[string]bool{"JPY": true, "KRW": true}

var symbols = map[string]string{
	"JPY": "¥",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FmtCurrency formats amount in minor units.
// Example: FmtCurrency(12345, "JPY", "ja") => "¥12,345"; FmtCurrency(2550, "USD", "en") => "$25.50"
func FmtCurrency(minor int64, currency, lang string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	neg := minor < 0
	if neg {
		minor = -minor
	}
	var num string
	if zeroDecimal[currency] {
		num = thousandSep(minor, lang)
	} else {
		num = thousandSep(minor/100, lang) + decimalMark(lang) + fmt.Sprintf("%02d", minor%100)
	}
	sign := ""
	if neg {
		sign = "-"
	}
	if sym, ok := symbols[currency]; ok {
		return sign + sym + num
	}
	if currency == "" {
		return sign + num
	}
	return sign + currency + " " + num
}

// Price formats an optional amount. A missing amount renders as an empty string.
func Price(minor *int64, currency, lang string) string {
	if minor == nil {
		return ""
	}
	return FmtCurrency(*minor, currency, lang)
}

func decimalMark(lang string) string {
	switch strings.ToLower(lang) {
	case "de", "fr", "es", "it":
		return ","
	default:
		return "."
	}
}

func thousandSep(n int64, lang string) string {
	sep := ","
	if decimalMark(lang) == "," {
		sep = "."
	}
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, c := range s {
		if i != 0 && (len(s)-i)%3 == 0 {
			b.WriteString(sep)
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Decimal renders minor units as a plain decimal string without symbol or grouping, as used
// in structured data. Example: Decimal(123450, "USD") => "1234.50"
func Decimal(minor int64, currency string) string {
	if zeroDecimal[strings.ToUpper(strings.TrimSpace(currency))] {
		return fmt.Sprintf("%d", minor)
	}
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
