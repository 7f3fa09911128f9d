package domain

// IndicatorSet holds the technical indicators computed from one price/volume
// series. Ichimoku is nil when the series was too short to produce a cloud;
// consumers must treat cloud-derived signals as optional.
type IndicatorSet struct {
	MA20 float64
	MA50 float64

	RSI         float64
	VolumeRatio float64

	MACD       float64
	MACDSignal float64
	MACDHist   float64

	BBUpper  float64
	BBMiddle float64
	BBLower  float64

	StochK float64
	StochD float64

	OBV       float64
	OBVChange float64

	ROC float64

	Ichimoku *IchimokuCloud
}

// IchimokuCloud holds the Ichimoku components evaluated at the latest period.
type IchimokuCloud struct {
	TenkanSen   float64  // conversion line
	KijunSen    float64  // base line
	SenkouSpanA float64  // leading span A (displaced forward)
	SenkouSpanB float64  // leading span B (displaced forward)
	ChikouSpan  *float64 // lagging span; nil when the displaced window has no datum
	CloudTop    float64
	CloudBottom float64
	// CloudDirection is +1 when span A leads above span B, -1 otherwise.
	CloudDirection int
}
