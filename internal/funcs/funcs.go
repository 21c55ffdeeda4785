package funcs

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

var TemplateFuncs = map[string]any{
	"formatMoney": FormatMoney,
	"formatTime":  formatTime,
	"toUpper":     strings.ToUpper,
	"toLower":     strings.ToLower,
	"pluralize":   pluralize,
}

// FormatMoney renders an amount with grouping and two decimals, prefixed by the
// currency symbol, e.g. "$ 5,705.00".
func FormatMoney(code string, amount decimal.Decimal) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return printer.Sprintf("%s %v", code, amount.StringFixed(2))
	}

	f, _ := amount.Round(2).Float64()
	return printer.Sprintf("%v %.2f", currency.Symbol(unit), f)
}

func formatTime(format string, t time.Time) string {
	return t.Format(format)
}

func pluralize(count any, singular, plural string) (string, error) {
	var n int64
	switch v := count.(type) {
	case int:
		n = int64(v)
	case int64:
		n = v
	default:
		return "", fmt.Errorf("unable to pluralize %T", count)
	}

	if n == 1 {
		return singular, nil
	}
	return plural, nil
}
