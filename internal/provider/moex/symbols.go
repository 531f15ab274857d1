package moex

import "strings"

// Suffix tags a symbol as belonging to this source (e.g. "SBER.ME").
const Suffix = ".ME"

// knownSymbols is the fixed allow-list of bare tickers routed to this
// source without an explicit suffix.
var knownSymbols = map[string]struct{}{
	"AFLT": {},
	"ALRS": {},
	"CHMF": {},
	"FIVE": {},
	"GAZP": {},
	"GMKN": {},
	"IRAO": {},
	"LKOH": {},
	"MGNT": {},
	"MOEX": {},
	"MTSS": {},
	"NLMK": {},
	"NVTK": {},
	"PHOR": {},
	"PLZL": {},
	"POLY": {},
	"ROSN": {},
	"RUAL": {},
	"SBER": {},
	"SBERP": {},
	"SNGS": {},
	"SNGSP": {},
	"TATN": {},
	"VTBR": {},
	"YDEX": {},
}

// IsEligible reports whether symbol belongs to this source: either its
// canonical form is on the allow-list, or the raw symbol carries the source
// suffix. The mixed rule accepts both bare tickers and explicitly tagged
// ones.
func IsEligible(symbol string) bool {
	if _, ok := knownSymbols[Canonicalize(symbol)]; ok {
		return true
	}
	return strings.HasSuffix(strings.ToUpper(strings.TrimSpace(symbol)), Suffix)
}

// Canonicalize strips the source suffix and upper-cases. The result is the
// aggregation key used to match rows and results back to a request; it is
// never shown to callers.
func Canonicalize(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	return strings.TrimSuffix(s, Suffix)
}
