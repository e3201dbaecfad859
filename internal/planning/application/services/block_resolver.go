package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Offsets are months before the event, measured on the canonical horizon.
// StartMonths is never smaller than EndMonths.
type Offsets struct {
	StartMonths float64
	EndMonths   float64
}

type canonicalBlock struct {
	key     string
	offsets Offsets
}

// canonicalBlocks is the standard planning catalogue.
var canonicalBlocks = []canonicalBlock{
	{"12m", Offsets{12, 10}},
	{"8-10m", Offsets{10, 8}},
	{"6-8m", Offsets{8, 6}},
	{"4-6m", Offsets{6, 4}},
	{"3-4m", Offsets{4, 3}},
	{"1-2m", Offsets{2, 1}},
	{"2w", Offsets{0.5, 0}},
}

var (
	keyReplacer = strings.NewReplacer(
		"months", "m", "month", "m",
		"weeks", "w", "week", "w",
		" ", "", "_", "-", "–", "-", "—", "-",
	)
	unitSeparator = regexp.MustCompile(`(\d)-([mw])`)
	rangePattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)(?:-(\d+(?:\.\d+)?))?([mw])`)
)

// BlockResolver maps block keys to canonical offsets.
type BlockResolver struct {
	exact     map[string]Offsets
	bySizeDsc []canonicalBlock
}

// NewBlockResolver builds a resolver over the standard catalogue.
func NewBlockResolver() *BlockResolver {
	r := &BlockResolver{exact: make(map[string]Offsets, len(canonicalBlocks))}
	for _, b := range canonicalBlocks {
		r.exact[b.key] = b.offsets
		r.bySizeDsc = append(r.bySizeDsc, b)
	}
	sort.SliceStable(r.bySizeDsc, func(i, j int) bool {
		return len(r.bySizeDsc[i].key) > len(r.bySizeDsc[j].key)
	})
	return r
}

// Resolve looks key up in the catalogue, first exactly and then as a
// substring, and otherwise parses it as "<n>[-<n>]m" or "<n>[-<n>]w".
// The second return value is false for keys that match nothing.
func (r *BlockResolver) Resolve(key string) (Offsets, bool) {
	k := normalizeKey(key)
	if k == "" {
		return Offsets{}, false
	}

	if o, ok := r.exact[k]; ok {
		return o, true
	}
	for _, b := range r.bySizeDsc {
		if containsToken(k, b.key) {
			return b.offsets, true
		}
	}
	return parseRange(k)
}

func normalizeKey(key string) string {
	k := keyReplacer.Replace(strings.ToLower(strings.TrimSpace(key)))
	return unitSeparator.ReplaceAllString(k, "$1$2")
}

// containsToken reports whether token occurs in s without being glued to a
// longer number on either side, so "12w" does not match "2w".
func containsToken(s, token string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], token)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(token)

		if !gluedLeft(s, i) && (end == len(s) || !isDigit(s[end])) {
			return true
		}
		from = i + 1
	}
}

func parseRange(k string) (Offsets, bool) {
	m := rangePattern.FindStringSubmatch(k)
	if m == nil {
		return Offsets{}, false
	}

	a, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Offsets{}, false
	}
	b := a
	if m[2] != "" {
		if b, err = strconv.ParseFloat(m[2], 64); err != nil {
			return Offsets{}, false
		}
	}
	if m[3] == "w" {
		a, b = a/4, b/4
	}

	return Offsets{StartMonths: max(a, b), EndMonths: min(a, b)}, true
}

// gluedLeft reports whether position i continues a number or a range such as
// the "10-" in "10-12m".
func gluedLeft(s string, i int) bool {
	if i == 0 {
		return false
	}
	c := s[i-1]
	if isDigit(c) || c == '.' {
		return true
	}
	return c == '-' && i >= 2 && isDigit(s[i-2])
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
