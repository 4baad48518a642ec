package bonds

import (
	"strings"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/types"
)

// Classification describes what kind of instrument a ticker is
type Classification struct {
	AssetType string                `json:"asset_type"`
	Currency  string                `json:"currency"`
	Group     types.InstrumentGroup `json:"group"`
}

// Asset types
const (
	AssetLetra   = "LECAP/LETRA"
	AssetON      = "ON"
	AssetBonoCER = "BONO_CER"
	AssetBonoUSD = "BONO_USD"
	AssetBonoARS = "BONO_ARS"
	AssetUnknown = "UNKNOWN"

	CurrencyARS     = "ARS"
	CurrencyUSD     = "USD"
	CurrencyUnknown = "UNKNOWN"
)

// Classify infers asset type and settlement currency from the feed group and
// ticker conventions: a trailing D marks the dollar line, a C marks CER
// adjustment. An empty group yields an empty classification.
func Classify(group types.InstrumentGroup, symbol string) Classification {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	dollar := strings.HasSuffix(s, "D")

	switch group {
	case "":
		return Classification{}
	case types.GroupNotes:
		return Classification{AssetType: AssetLetra, Currency: CurrencyARS, Group: group}
	case types.GroupCorp:
		if dollar {
			return Classification{AssetType: AssetON, Currency: CurrencyUSD, Group: group}
		}
		return Classification{AssetType: AssetON, Currency: CurrencyARS, Group: group}
	case types.GroupBonds:
		switch {
		case strings.Contains(s, "C") && dollar:
			return Classification{AssetType: AssetBonoCER, Currency: CurrencyUSD, Group: group}
		case strings.Contains(s, "C"):
			return Classification{AssetType: AssetBonoCER, Currency: CurrencyARS, Group: group}
		case dollar:
			return Classification{AssetType: AssetBonoUSD, Currency: CurrencyUSD, Group: group}
		default:
			return Classification{AssetType: AssetBonoARS, Currency: CurrencyARS, Group: group}
		}
	}

	return Classification{AssetType: AssetUnknown, Currency: CurrencyUnknown, Group: group}
}
