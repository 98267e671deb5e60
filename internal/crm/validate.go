package crm

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// mailbox local part + dotted domain with an alphabetic TLD
	emailRe = regexp.MustCompile(`^[A-Za-z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?)*\.[A-Za-z]{2,63}$`)

	phoneRes = []*regexp.Regexp{
		regexp.MustCompile(`^\+\d{7,15}$`),
		regexp.MustCompile(`^\d{3}-\d{3}-\d{4}$`),
		regexp.MustCompile(`^\d{7,15}$`),
	}

	maxPrice = decimal.New(1, 10) // 10 integer digits
)

func validEmailShape(s string) bool {
	if len(s) > 254 {
		return false
	}
	local, _, ok := strings.Cut(s, "@")
	if !ok || len(local) > 64 || strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return false
	}
	return emailRe.MatchString(s)
}

// validPhoneShape accepts an empty phone.
func validPhoneShape(s string) bool {
	if s == "" {
		return true
	}
	for _, re := range phoneRes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func validPrice(p decimal.Decimal) bool { return p.IsPositive() }

func validPricePrecision(p decimal.Decimal) bool {
	return p.Equal(p.Round(MoneyPlaces)) && p.LessThan(maxPrice)
}

// MaxStock is the largest value the stock column holds.
const MaxStock = math.MaxInt32

func validStock(n int) bool { return n >= 0 && n <= MaxStock }

func nonEmptyName(s string) bool { return strings.TrimSpace(s) != "" }

// normalizeEmail is the key used for case-insensitive uniqueness.
func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
