package domain

const (
	outlyingPostage = 1080
	standardPostage = 540
)

// The provider reports the destination prefecture in Japanese; romanized
// names are accepted too so the table is robust to provider locale.
var outlyingRegions = map[string]struct{}{
	"沖縄県":      {},
	"北海道":      {},
	"Okinawa":  {},
	"Hokkaido": {},
}

// ComputePostage returns the shipping fee for a destination region:
// a higher flat fee for the two outlying regions, the standard fee
// everywhere else.
func ComputePostage(region string) int64 {
	if _, ok := outlyingRegions[region]; ok {
		return outlyingPostage
	}
	return standardPostage
}
