package models

// GlobalRegistry is the deployment-wide configuration and counter record.
// Created once by initialize, mutated by every policy, premium and payout
// operation, never destroyed.
type GlobalRegistry struct {
	Authority              string `json:"authority" db:"authority"`
	TotalPolicies          uint64 `json:"total_policies" db:"total_policies"`
	TotalPremiumsCollected uint64 `json:"total_premiums_collected" db:"total_premiums_collected"`
	TotalPayouts           uint64 `json:"total_payouts" db:"total_payouts"`
	IsPaused               bool   `json:"is_paused" db:"is_paused"`
}

// Account is a custodial balance row. The risk pool is the account with
// ID RiskPoolAccountID; every other account belongs to an owner identity.
type Account struct {
	ID      string `json:"id" db:"id"`
	Balance uint64 `json:"balance" db:"balance"`
}

const RiskPoolAccountID = "risk_pool"
