package zerodha

// NSE instrument tokens for the supported watchlist. Kept static to avoid a
// dependency on the instruments dump at startup.
// TODO: fetch tokens from the Kite instruments API once a day instead.
var nseTokens = map[string]uint32{
	"RELIANCE":   256265,
	"TCS":        2953217,
	"HDFCBANK":   341249,
	"INFY":       408065,
	"HCLTECH":    1850625,
	"LT":         2939649,
	"SBIN":       779521,
	"ICICIBANK":  1270529,
	"AXISBANK":   1510401,
	"KOTAKBANK":  492033,
	"ITC":        424961,
	"TATAMOTORS": 884737,
	"TITAN":      897537,
	"JSWSTEEL":   3001089,
	"ULTRACEMCO": 2952193,
	"BAJFINANCE": 81153,
	"HDFCLIFE":   119553,
	"BHARTIARTL": 2714625,
	"ASIANPAINT": 60417,
	"MARUTI":     2815745,
}

func instrumentToken(symbol string) uint32 {
	if token, ok := nseTokens[symbol]; ok {
		return token
	}
	return 256265
}
