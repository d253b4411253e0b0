package dispatch

import (
	"regexp"
	"strconv"
	"strings"
)

// validChains is the strict chain enum; "bitcoin"/"ethereum" only.
var validChains = map[string]struct{}{"bitcoin": {}, "ethereum": {}}

func validChain(chain string) bool {
	_, ok := validChains[strings.ToLower(chain)]
	return ok
}

var blockNumberPattern = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)

// validBlockNumber enforces non-negative integers with no leading zeros
// except the literal "0".
func validBlockNumber(s string) bool {
	return blockNumberPattern.MatchString(s)
}

// parseLimit accepts only an integer limit string in [1,100]; anything else
// reports ok=false so the caller can choose the right 400 detail.
func parseLimit(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	if n < 1 || n > 100 {
		return 0, false
	}
	return n, true
}

// parsePage accepts only an integer page string >= 1; anything else reports
// ok=false.
func parsePage(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

var validMovers = map[string]struct{}{"gainers": {}, "losers": {}, "actives": {}}

func validMoverKind(kind string) bool {
	_, ok := validMovers[kind]
	return ok
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
