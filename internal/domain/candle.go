package domain

import "time"

// CandleInterval is the time granularity of a candle stream.
type CandleInterval string

const (
	Interval1Min  CandleInterval = "1min"
	Interval5Min  CandleInterval = "5min"
	Interval15Min CandleInterval = "15min"
	Interval30Min CandleInterval = "30min"
	IntervalHour  CandleInterval = "hour"
	IntervalDay   CandleInterval = "day"
)

// Candle is a single OHLCV bar for one instrument over one interval.
// Immutable once produced. JSON tags follow the wire format clients expect.
type Candle struct {
	FIGI     string         `json:"figi"`
	Interval CandleInterval `json:"interval"`
	Open     float64        `json:"o"`
	Close    float64        `json:"c"`
	High     float64        `json:"h"`
	Low      float64        `json:"l"`
	Volume   float64        `json:"v"`
	Time     time.Time      `json:"time"`
}
