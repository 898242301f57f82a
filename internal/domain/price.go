package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNoDigits       = errors.New("no digits in price text")
	ErrAmbiguousPrice = errors.New("ambiguous separator layout in price text")
	ErrPriceTooLarge  = errors.New("price exceeds supported magnitude")
)

// Listings never reach trillions; anything longer is scrape garbage, not a price.
const maxIntegerDigits = 12

// ParsePrice normalizes raw storefront price text ("$19.999,50", "AR$ 1.234",
// "19,99") into an exact decimal with cent precision.
//
// Currency symbols, spaces and any other decoration are stripped first. When
// both separators appear, the right-most one is the decimal separator and the
// other marks thousands. A lone separator is decimal only when followed by
// exactly one or two digits; otherwise it marks thousands.
func ParsePrice(raw string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	s := b.String()

	if !strings.ContainsAny(s, "0123456789") {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrNoDigits, raw)
	}

	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	var canonical string
	switch {
	case dots > 0 && commas > 0:
		c, err := resolveMixedSeparators(s, raw)
		if err != nil {
			return decimal.Decimal{}, err
		}
		canonical = c

	case dots+commas == 1:
		sep := "."
		if commas == 1 {
			sep = ","
		}
		idx := strings.Index(s, sep)
		frac := s[idx+1:]
		if len(frac) >= 1 && len(frac) <= 2 {
			canonical = s[:idx] + "." + frac
		} else {
			// "1.234" or a trailing separator: thousands, drop it
			canonical = s[:idx] + frac
		}

	default:
		// zero separators, or several of the same kind: all thousands
		canonical = strings.NewReplacer(".", "", ",", "").Replace(s)
	}

	intDigits := len(canonical)
	if i := strings.IndexByte(canonical, '.'); i >= 0 {
		intDigits = i
	}
	if intDigits > maxIntegerDigits {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrPriceTooLarge, raw)
	}

	price, err := decimal.NewFromString(canonical)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrAmbiguousPrice, raw)
	}
	return price.Round(2), nil
}

// resolveMixedSeparators handles text carrying both '.' and ','. The
// right-most separator type must appear exactly once and carry one or two
// fraction digits; the other type is removed as thousands marks.
func resolveMixedSeparators(s, raw string) (string, error) {
	decSep, thouSep := ".", ","
	if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
		decSep, thouSep = ",", "."
	}

	if strings.Count(s, decSep) != 1 {
		return "", fmt.Errorf("%w: %q", ErrAmbiguousPrice, raw)
	}

	idx := strings.Index(s, decSep)
	frac := s[idx+1:]
	if len(frac) < 1 || len(frac) > 2 {
		return "", fmt.Errorf("%w: %q", ErrAmbiguousPrice, raw)
	}

	intPart := strings.ReplaceAll(s[:idx], thouSep, "")
	return intPart + "." + frac, nil
}
