// Package model holds the client and investment records the query pipeline reads.
package model

import (
	"strings"
	"time"
)

// RiskCategory is a client's declared risk appetite
type RiskCategory string

const (
	RiskConservative RiskCategory = "conservative"
	RiskModerate     RiskCategory = "moderate"
	RiskAggressive   RiskCategory = "aggressive"
)

// ParseRiskCategory maps a free-form string onto the closed risk enumeration.
// The second return is false for anything outside the enumeration.
func ParseRiskCategory(s string) (RiskCategory, bool) {
	switch RiskCategory(strings.ToLower(strings.TrimSpace(s))) {
	case RiskConservative:
		return RiskConservative, true
	case RiskModerate:
		return RiskModerate, true
	case RiskAggressive:
		return RiskAggressive, true
	default:
		return "", false
	}
}

// Address is the structured location of a client
type Address struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	Pincode string `json:"pincode" bson:"pincode"`
}

// ClientProfile is one wealth-management client as kept by the profile store.
// PortfolioValue is in whole rupees and is never negative.
type ClientProfile struct {
	ClientID              string       `json:"client_id" bson:"client_id"`
	Name                  string       `json:"name" bson:"name"`
	Email                 string       `json:"email,omitempty" bson:"email,omitempty"`
	Phone                 string       `json:"phone,omitempty" bson:"phone,omitempty"`
	Address               Address      `json:"address" bson:"address"`
	PortfolioValue        int64        `json:"portfolio_value" bson:"portfolio_value"`
	RiskAppetite          RiskCategory `json:"risk_appetite" bson:"risk_appetite"`
	InvestmentPreferences []string     `json:"investment_preferences,omitempty" bson:"investment_preferences,omitempty"`
	RelationshipManager   string       `json:"relationship_manager,omitempty" bson:"relationship_manager,omitempty"`
	OnboardingDate        string       `json:"onboarding_date,omitempty" bson:"onboarding_date,omitempty"`
	KYCStatus             string       `json:"kyc_status,omitempty" bson:"kyc_status,omitempty"`
	Category              string       `json:"category,omitempty" bson:"category,omitempty"`
}

// Location returns the client's city
func (p ClientProfile) Location() string {
	return p.Address.City
}

// Transaction is one allocation of a client's capital to an investment type.
// ClientID is an opaque key and may have no matching profile.
type Transaction struct {
	ClientID            string    `json:"client_id"`
	PortfolioValue      int64     `json:"portfolio_value"`
	RelationshipManager string    `json:"relationship_manager"`
	InvestmentType      string    `json:"investment_type"`
	CreatedAt           time.Time `json:"created_at,omitempty"`
}

// NonNegative clamps a monetary value read from an external store.
func NonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
