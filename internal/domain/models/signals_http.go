package models

// Requests for QOFA HTTP endpoints. Defined in domain for consistency and reuse.

type FlowRequest struct {
	Symbol     string    `json:"symbol" validate:"required"`
	PriceData  []float64 `json:"price_data" validate:"required,min=2,max=10000"`
	VolumeData []float64 `json:"volume_data" validate:"required,min=2,max=10000,dive,gte=0"`
	StrikeData []float64 `json:"strike_data" validate:"omitempty,max=10000"`
}

type EntanglementRequest struct {
	Symbols []string `json:"symbols" validate:"required_without=Series,max=50,dive,required"`
	Series  []Series `json:"series" validate:"max=50"`
	N       int      `json:"n" default:"100" validate:"gte=2,lte=5000"`
}

type RiskRequest struct {
	Portfolio        []Position         `json:"portfolio" validate:"required,min=1,max=500,dive"`
	MarketConditions map[string]float64 `json:"market_conditions"`
	N                int                `json:"n" default:"100" validate:"gte=2,lte=5000"`
}

type HamiltonianRequest struct {
	OptionsChain []OptionContract `json:"options_chain" validate:"required,min=1,max=500,dive"`
	InitialState []Complex        `json:"initial_state" validate:"omitempty,max=500"`
	TimeSteps    int              `json:"time_steps" default:"100" validate:"gte=1,lte=10000"`
}

type StatusRequest struct {
	ClientName string `json:"client_name" validate:"required,max=256"`
}
