package models

// Fixed price tables. These values are part of the wallet's external
// contract and are not runtime-configurable.

type CoinPackage struct {
	ID        string `json:"id"`
	Coins     int    `json:"coins"`
	FiatPrice int64  `json:"fiat_price"`
}

var CoinPackages = []CoinPackage{
	{ID: "coins-100", Coins: 100, FiatPrice: 12_000},
	{ID: "coins-500", Coins: 500, FiatPrice: 55_000},
	{ID: "coins-1000", Coins: 1000, FiatPrice: 100_000},
}

func FindCoinPackage(id string) (*CoinPackage, bool) {
	for i := range CoinPackages {
		if CoinPackages[i].ID == id {
			return &CoinPackages[i], true
		}
	}
	return nil, false
}

type PremiumPlanPackage struct {
	Plan        string `json:"plan"`
	CoinPrice   int    `json:"coin_price"`
	FiatPrice   int64  `json:"fiat_price"`
	BonusBoosts int    `json:"bonus_boosts"`
}

var PremiumPlanPackages = []PremiumPlanPackage{
	{Plan: PlanGold, CoinPrice: 500, FiatPrice: 60_000, BonusBoosts: 0},
	{Plan: PlanDiamond, CoinPrice: 900, FiatPrice: 110_000, BonusBoosts: 5},
}

func FindPremiumPlanPackage(plan string) (*PremiumPlanPackage, bool) {
	for i := range PremiumPlanPackages {
		if PremiumPlanPackages[i].Plan == plan {
			return &PremiumPlanPackages[i], true
		}
	}
	return nil, false
}
