package portfolio

import (
	"strings"

	"github.com/ysncmn/borsapy/internal/domain"
)

// fxCurrencies are the currency codes quoted against TRY by the FX
// sources.
var fxCurrencies = map[string]struct{}{
	// Major
	"USD": {}, "EUR": {}, "GBP": {}, "CHF": {}, "CAD": {}, "AUD": {}, "JPY": {},
	"NZD": {}, "SGD": {}, "HKD": {}, "TWD": {},
	// European
	"DKK": {}, "SEK": {}, "NOK": {}, "PLN": {}, "CZK": {}, "HUF": {}, "RON": {},
	"BGN": {}, "HRK": {}, "RSD": {}, "BAM": {}, "MKD": {}, "ALL": {}, "MDL": {},
	"UAH": {}, "BYR": {}, "ISK": {},
	// Middle East & Africa
	"AED": {}, "SAR": {}, "QAR": {}, "KWD": {}, "BHD": {}, "OMR": {}, "JOD": {},
	"IQD": {}, "IRR": {}, "LBP": {}, "SYP": {}, "EGP": {}, "LYD": {}, "TND": {},
	"DZD": {}, "MAD": {}, "ZAR": {}, "ILS": {},
	// Asia & Pacific
	"CNY": {}, "INR": {}, "PKR": {}, "LKR": {}, "IDR": {}, "MYR": {}, "THB": {},
	"PHP": {}, "KRW": {}, "KZT": {}, "AZN": {}, "GEL": {},
	// Americas
	"MXN": {}, "BRL": {}, "ARS": {}, "CLP": {}, "COP": {}, "PEN": {}, "UYU": {},
	"CRC": {},
	// Other
	"RUB": {}, "DVZSP1": {},
}

// fxMetals are precious-metal quotes. These keep their lowercase form.
var fxMetals = map[string]struct{}{
	"gram-altin": {}, "ceyrek-altin": {}, "yarim-altin": {}, "tam-altin": {},
	"cumhuriyet-altin": {}, "ata-altin": {}, "ons-altin": {}, "gram-gumus": {},
	"gram-platin": {},
}

var fxCommodities = map[string]struct{}{
	"BRENT": {}, "XAG-USD": {}, "XPT-USD": {}, "XPD-USD": {},
}

// indexCodes are the BIST index symbols recognized without an explicit
// class tag.
var indexCodes = map[string]struct{}{
	"XU100": {}, "XU050": {}, "XU030": {}, "XU500": {}, "XUTUM": {},
	"XBANK": {}, "XUSIN": {}, "XUTEK": {}, "XUMAL": {}, "XK030": {},
}

// Classify infers the asset class from the symbol's shape. It is a
// total, pure function: every symbol either maps to one class or fails
// with a ClassificationError. Fund codes (three letters) collide with no
// reliable pattern and always require an explicit class tag.
func Classify(symbol string) (domain.AssetClass, error) {
	if symbol == "" {
		return "", &domain.ClassificationError{Symbol: symbol, Reason: "empty symbol"}
	}

	if _, ok := fxMetals[symbol]; ok {
		return domain.AssetFX, nil
	}

	upper := strings.ToUpper(symbol)
	if _, ok := fxCurrencies[upper]; ok {
		return domain.AssetFX, nil
	}
	if _, ok := fxCommodities[upper]; ok {
		return domain.AssetFX, nil
	}
	if _, ok := indexCodes[upper]; ok {
		return domain.AssetIndex, nil
	}

	// Crypto pairs quote against TRY: BTCTRY, ETHTRY, AVAXTRY.
	if strings.HasSuffix(upper, "TRY") && len(upper) > 5 {
		return domain.AssetCrypto, nil
	}

	// TEFAS fund codes are three letters and indistinguishable from
	// short equity tickers; guessing would silently misprice them.
	if len(upper) == 3 && isAlpha(upper) {
		return "", &domain.ClassificationError{
			Symbol: symbol,
			Reason: "three-letter code matches both fund and equity shapes; pass an explicit asset class",
		}
	}

	// BIST equity tickers are 4-6 uppercase letters.
	if len(upper) >= 4 && len(upper) <= 6 && isAlpha(upper) {
		return domain.AssetStock, nil
	}

	return "", &domain.ClassificationError{
		Symbol: symbol,
		Reason: "symbol matches no known asset-class shape; pass an explicit asset class",
	}
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
