package agent

import (
	"strconv"
	"strings"
	"unicode"
)

type IntentKind int

const (
	IntentNone IntentKind = iota
	IntentHelp
	IntentExit
	IntentListProducts
	IntentShowSales
	IntentLastSale
	IntentQueryProduct
	IntentSell
	IntentSellMissingQuantity
	IntentQuickSell
	IntentSellSelected
	IntentResolveName
	IntentUnknown
)

var intentNames = map[IntentKind]string{
	IntentNone:                "none",
	IntentHelp:                "help",
	IntentExit:                "exit",
	IntentListProducts:        "list_products",
	IntentShowSales:           "show_sales",
	IntentLastSale:            "last_sale",
	IntentQueryProduct:        "query_product",
	IntentSell:                "sell",
	IntentSellMissingQuantity: "sell_missing_quantity",
	IntentQuickSell:           "quick_sell",
	IntentSellSelected:        "sell_selected",
	IntentResolveName:         "resolve_name",
	IntentUnknown:             "unknown",
}

func (k IntentKind) String() string {
	if name, ok := intentNames[k]; ok {
		return name
	}
	return "intent(" + strconv.Itoa(int(k)) + ")"
}

// Intent is one classified input line. Name holds a product query or, for
// IntentShowSales, the optional filter.
type Intent struct {
	Kind     IntentKind
	Name     string
	Quantity int
}

// rule recognizes one input form. line is trimmed with single spaces and
// lower is its lower-case copy.
type rule struct {
	name  string
	match func(line, lower string) (Intent, bool)
}

// Order matters: sell forms must be tried before plain name lookup, and a
// bare number only after every form that names a product.
var rules = []rule{
	{"help", matchHelp},
	{"exit", matchExit},
	{"list_products", matchListProducts},
	{"show_sales", matchShowSales},
	{"last_sale", matchLastSale},
	{"query_product", matchQueryProduct},
	{"sell", matchSell},
	{"quick_sell", matchQuickSell},
	{"sell_selected", matchSellSelected},
	{"resolve_name", matchResolveName},
}

// Classify maps one input line to an Intent. It never fails: unrecognized
// input yields IntentUnknown and a blank line IntentNone.
func Classify(input string) Intent {
	intent, _ := classify(input)
	return intent
}

// classify also reports the name of the rule that matched.
func classify(input string) (Intent, string) {
	line := strings.Join(strings.Fields(input), " ")
	if line == "" {
		return Intent{Kind: IntentNone}, ""
	}
	lower := strings.ToLower(line)

	for _, r := range rules {
		if intent, ok := r.match(line, lower); ok {
			return intent, r.name
		}
	}
	return Intent{Kind: IntentUnknown, Name: line}, "fallback"
}

func matchHelp(_, lower string) (Intent, bool) {
	return Intent{Kind: IntentHelp}, lower == "help" || lower == "?"
}

func matchExit(_, lower string) (Intent, bool) {
	return Intent{Kind: IntentExit}, lower == "exit" || lower == "quit"
}

func matchListProducts(_, lower string) (Intent, bool) {
	switch lower {
	case "show products", "list products", "products":
		return Intent{Kind: IntentListProducts}, true
	}
	return Intent{}, false
}

func matchShowSales(line, _ string) (Intent, bool) {
	rest, ok := cutWord(line, "show sales")
	if !ok {
		rest, ok = cutWord(line, "sales")
	}
	if !ok {
		return Intent{}, false
	}

	if filter, found := cutWord(rest, "for"); found {
		rest = filter
	}
	return Intent{Kind: IntentShowSales, Name: rest}, true
}

func matchLastSale(_, lower string) (Intent, bool) {
	return Intent{Kind: IntentLastSale}, lower == "show last sale" || lower == "last sale"
}

var queryPrefixes = []string{"what is the price of", "price of", "how many", "show"}

func matchQueryProduct(line, _ string) (Intent, bool) {
	for _, prefix := range queryPrefixes {
		name, ok := cutWord(line, prefix)
		if !ok || name == "" {
			continue
		}
		if prefix == "how many" {
			name = trimSuffixFold(name, " in stock")
		}
		return Intent{Kind: IntentQueryProduct, Name: name}, true
	}
	return Intent{}, false
}

// matchSell accepts "sell <qty> <name>" and "sell <name> <qty>". The
// quantity is a token made only of digits, leading or trailing.
func matchSell(line, _ string) (Intent, bool) {
	rest, ok := cutWord(line, "sell")
	if !ok {
		return Intent{}, false
	}

	tokens := strings.Fields(rest)
	if len(tokens) == 0 {
		return Intent{Kind: IntentSellMissingQuantity}, true
	}
	if qty, ok := parseQuantity(tokens[0]); ok {
		name := strings.Join(tokens[1:], " ")
		if name == "" {
			return Intent{Kind: IntentSellSelected, Quantity: qty}, true
		}
		return Intent{Kind: IntentSell, Name: name, Quantity: qty}, true
	}
	last := len(tokens) - 1
	if qty, ok := parseQuantity(tokens[last]); ok {
		return Intent{Kind: IntentSell, Name: strings.Join(tokens[:last], " "), Quantity: qty}, true
	}
	return Intent{Kind: IntentSellMissingQuantity, Name: rest}, true
}

func matchQuickSell(line, _ string) (Intent, bool) {
	head, name, found := strings.Cut(line, " ")
	if !found {
		return Intent{}, false
	}
	qty, ok := parseQuantity(head)
	if !ok {
		return Intent{}, false
	}
	return Intent{Kind: IntentQuickSell, Name: name, Quantity: qty}, true
}

func matchSellSelected(line, _ string) (Intent, bool) {
	qty, ok := parseQuantity(line)
	if !ok {
		return Intent{}, false
	}
	return Intent{Kind: IntentSellSelected, Quantity: qty}, true
}

func matchResolveName(line, _ string) (Intent, bool) {
	if !strings.ContainsFunc(line, unicode.IsLetter) {
		return Intent{}, false
	}
	return Intent{Kind: IntentResolveName, Name: line}, true
}

// cutWord strips prefix from line, ignoring case, when it is followed by a
// space or the end of input.
func cutWord(line, prefix string) (string, bool) {
	if len(line) < len(prefix) || !strings.EqualFold(line[:len(prefix)], prefix) {
		return "", false
	}
	rest := line[len(prefix):]
	if rest != "" && rest[0] != ' ' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func trimSuffixFold(s, suffix string) string {
	if n := len(s) - len(suffix); n > 0 && strings.EqualFold(s[n:], suffix) {
		return strings.TrimSpace(s[:n])
	}
	return s
}

// parseQuantity accepts tokens of ASCII digits only, so signs and
// decimals never count as a quantity.
func parseQuantity(tok string) (int, bool) {
	if tok == "" {
		return 0, false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	return n, true
}
