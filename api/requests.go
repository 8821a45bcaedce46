package api

import (
	"github.com/bcdannyboy/optpricer/models"
	"github.com/bcdannyboy/optpricer/positions"
	"github.com/bcdannyboy/optpricer/pricing"
)

// PriceRequest prices a single option. Type is the payoff direction and Model
// the pricing kind, "european" when empty.
type PriceRequest struct {
	Type       string   `json:"type" binding:"required"`
	Model      string   `json:"model"`
	Spot       float64  `json:"spot" binding:"gt=0"`
	Strike     float64  `json:"strike" binding:"gt=0"`
	Rate       *float64 `json:"rate" binding:"required,gte=0"`
	Volatility float64  `json:"volatility" binding:"gt=0"`
	Time       float64  `json:"time" binding:"gt=0"`
	Steps      int      `json:"steps" binding:"omitempty,min=1"`
}

type PriceResponse struct {
	models.Greeks
	Price  float64 `json:"price"`
	Spot   float64 `json:"spot"`
	Strike float64 `json:"strike"`
	Type   string  `json:"type"`
	Model  string  `json:"model"`
	Kind   string  `json:"kind"`
}

type StrategyRequest struct {
	Strategy   string   `json:"strategy" binding:"required"`
	Model      string   `json:"model"`
	Spot       float64  `json:"spot" binding:"gt=0"`
	Strike     float64  `json:"strike" binding:"gt=0"`
	Rate       *float64 `json:"rate" binding:"required,gte=0"`
	Volatility float64  `json:"volatility" binding:"gt=0"`
	Time       float64  `json:"time" binding:"gt=0"`
	Steps      int      `json:"steps" binding:"omitempty,min=1"`
	IsLong     *bool    `json:"is_long"`
}

type LegResponse struct {
	models.Greeks
	OptionType string  `json:"optionType"`
	Model      string  `json:"model"`
	Strike     float64 `json:"strike"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

type StrategyResponse struct {
	models.Greeks
	Strategy string                  `json:"strategy"`
	IsLong   bool                    `json:"is_long"`
	Price    float64                 `json:"price"`
	NumLegs  int                     `json:"num_legs"`
	Legs     []LegResponse           `json:"legs"`
	Payoff   positions.PayoffProfile `json:"payoff"`
	Status   string                  `json:"status"`
}

// PortfolioLeg mirrors positions.LegSpec on the wire. Quantity defaults to 1
// when omitted and OptionType to "call".
type PortfolioLeg struct {
	Type       string  `json:"type"`
	OptionType string  `json:"optionType"`
	Strike     float64 `json:"strike" binding:"gt=0"`
	Volatility float64 `json:"volatility" binding:"gt=0"`
	Time       float64 `json:"time" binding:"gt=0"`
	Quantity   *int    `json:"quantity"`
	Steps      int     `json:"steps" binding:"omitempty,min=1"`
}

type PortfolioRequest struct {
	Spot        float64        `json:"spot" binding:"gt=0"`
	Rate        *float64       `json:"rate" binding:"required,gte=0"`
	Legs        []PortfolioLeg `json:"legs" binding:"required,min=1,dive"`
	PayoffSteps int            `json:"payoff_steps" binding:"omitempty,min=1"`
}

type Portfolio struct {
	Spot       float64                 `json:"spot"`
	TotalPrice float64                 `json:"totalPrice"`
	Greeks     models.Greeks           `json:"greeks"`
	Legs       []LegResponse           `json:"legs"`
	Payoff     positions.PayoffProfile `json:"payoff"`
}

type PortfolioResponse struct {
	Portfolio Portfolio `json:"portfolio"`
	Status    string    `json:"status"`
}

// RiskRequest is a portfolio plus scenario settings; zero values fall back
// to the configured risk defaults.
type RiskRequest struct {
	PortfolioRequest
	Confidence float64 `json:"confidence" binding:"omitempty,gt=0,lt=1"`
	Grid       string  `json:"grid" binding:"omitempty,oneof=linear lognormal"`
	GridWidth  float64 `json:"grid_width" binding:"omitempty,gt=0,lt=1"`
	GridPoints int     `json:"grid_points" binding:"omitempty,min=2"`
}

type RiskResponse struct {
	Risk   models.PortfolioRisk `json:"risk"`
	Grid   []float64            `json:"grid"`
	Status string               `json:"status"`
}

type SurfaceQuery struct {
	Type       string  `form:"type"`
	Spot       float64 `form:"spot" binding:"gt=0"`
	Strike     float64 `form:"strike" binding:"gt=0"`
	Rate       float64 `form:"rate" binding:"gte=0"`
	Volatility float64 `form:"volatility" binding:"gt=0"`
	Time       float64 `form:"time" binding:"gt=0"`
	Greek      string  `form:"greek"`
	GridSize   int     `form:"grid_size" binding:"omitempty,min=1"`
}

type ImpliedVolRequest struct {
	Type        string   `json:"type" binding:"required"`
	Spot        float64  `json:"spot" binding:"gt=0"`
	Strike      float64  `json:"strike" binding:"gt=0"`
	Rate        *float64 `json:"rate" binding:"required,gte=0"`
	Time        float64  `json:"time" binding:"gt=0"`
	MarketPrice float64  `json:"marketPrice" binding:"gt=0"`
}

type ImpliedVolResponse struct {
	pricing.ImpliedVol
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
