package models

import "time"

// MacroSnapshot holds one evaluation's raw macro inputs. It is immutable
// once constructed by the data provider; every field is a finite number
// (the provider substitutes configured defaults for unavailable sources).
type MacroSnapshot struct {
	FedRate     float64   `json:"fed_rate"`
	Treasury10Y float64   `json:"treasury_10y"`
	CPIYoY      float64   `json:"cpi_yoy"`
	GoldPrice   float64   `json:"gold_price"`
	DXYLevel    float64   `json:"dxy_level"`
	FetchedAt   time.Time `json:"fetched_at"`
}
