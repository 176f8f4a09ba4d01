package dashboard

import (
	"cmp"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/yourorg/orderdesk/internal/domain"
)

// SortOption is a product grid ordering.
type SortOption string

const (
	SortDefault   SortOption = "default"
	SortPriceAsc  SortOption = "priceAsc"
	SortPriceDesc SortOption = "priceDesc"
	SortNameAsc   SortOption = "nameAsc"
	SortNameDesc  SortOption = "nameDesc"
)

// SortOptions lists every option in menu order.
var SortOptions = []SortOption{SortDefault, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc}

// ParseSortOption maps a query value onto a SortOption.
func ParseSortOption(s string) (SortOption, bool) {
	switch SortOption(s) {
	case SortDefault, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc:
		return SortOption(s), true
	default:
		return "", false
	}
}

// productOrder returns the comparison for opt, or nil when opt keeps the
// fetched order. Names compare with a locale collator.
func productOrder(opt SortOption) func(a, b domain.Product) int {
	switch opt {
	case SortPriceAsc:
		return func(a, b domain.Product) int { return cmp.Compare(a.Price, b.Price) }
	case SortPriceDesc:
		return func(a, b domain.Product) int { return cmp.Compare(b.Price, a.Price) }
	case SortNameAsc:
		c := collate.New(language.English)
		return func(a, b domain.Product) int { return c.CompareString(a.Name, b.Name) }
	case SortNameDesc:
		c := collate.New(language.English)
		return func(a, b domain.Product) int { return c.CompareString(b.Name, a.Name) }
	case SortDefault:
		return nil
	default:
		return nil
	}
}
