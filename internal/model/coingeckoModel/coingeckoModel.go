package coingeckoModel

// RawSimplePrice is the /simple/price response: coingecko id -> metric -> value.
type RawSimplePrice map[string]map[string]float64

// RawMarketChart is the /coins/{id}/market_chart response.
// Each entry is a [unix_ms, value] pair.
type RawMarketChart struct {
	Prices [][]float64 `json:"prices"`
}
