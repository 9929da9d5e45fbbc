package alert

import (
	"math"
	"strings"
)

// defaultCrops is used when a farmer has no preferred crops and no crop types
// on their profile.
var defaultCrops = []string{"wheat", "rice", "corn"}

// CropsFor resolves the crop list to price-check for one farmer: explicit
// alert preferences win, then the profile's crop types, then the defaults.
func CropsFor(f Farmer) []string {
	if len(f.PreferredCrops) > 0 {
		return f.PreferredCrops
	}
	if len(f.CropTypes) > 0 {
		return f.CropTypes
	}
	return defaultCrops
}

// BuildPriceAlerts filters quotes down to significant moves and computes the
// change and trend for each. A move is significant when it exceeds 2% of the
// previous price or ₹50 absolute (both strict). When the farmer has a location
// on file, the market label becomes "<location> Mandi".
func BuildPriceAlerts(quotes []Quote, location string) []PriceAlert {
	var alerts []PriceAlert
	for _, q := range quotes {
		change := q.Current - q.Previous
		if q.Previous == 0 {
			continue
		}
		percent := change / q.Previous * 100

		if math.Abs(percent) <= 2 && math.Abs(change) <= 50 {
			continue
		}

		trend := TrendStable
		switch {
		case change > 0:
			trend = TrendUp
		case change < 0:
			trend = TrendDown
		}

		market := q.Market
		if location != "" {
			market = location + " Mandi"
		}

		alerts = append(alerts, PriceAlert{
			Crop:          capitalize(q.Commodity),
			CurrentPrice:  q.Current,
			PreviousPrice: q.Previous,
			Change:        change,
			ChangePercent: percent,
			Market:        market,
			Trend:         trend,
		})
	}
	return alerts
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
