package store

import "github.com/wealth-query-agent/internal/model"

// SampleProfiles returns a fresh copy of the built-in client profiles.
// They seed empty stores and stand in for the profile store when it fails.
func SampleProfiles() []model.ClientProfile {
	return []model.ClientProfile{
		{
			ClientID: "C001", Name: "Virat Kohli",
			Email: "virat.kohli@email.com", Phone: "+91-9876543210",
			Address:               model.Address{Street: "MG Road", City: "Mumbai", State: "Maharashtra", Pincode: "400001"},
			PortfolioValue:        50000000,
			RiskAppetite:          model.RiskModerate,
			InvestmentPreferences: []string{"equity", "mutual_funds"},
			RelationshipManager:   "Amit Kumar",
			OnboardingDate:        "2022-01-15",
			KYCStatus:             "completed",
			Category:              "sports_personality",
		},
		{
			ClientID: "C002", Name: "MS Dhoni",
			Email: "ms.dhoni@email.com", Phone: "+91-9876543211",
			Address:               model.Address{Street: "Marine Drive", City: "Chennai", State: "Tamil Nadu", Pincode: "600001"},
			PortfolioValue:        75000000,
			RiskAppetite:          model.RiskConservative,
			InvestmentPreferences: []string{"bonds", "fixed_deposits"},
			RelationshipManager:   "Priya Singh",
			OnboardingDate:        "2021-08-20",
			KYCStatus:             "completed",
			Category:              "sports_personality",
		},
		{
			ClientID: "C003", Name: "Rohit Sharma",
			Email: "rohit.sharma@email.com", Phone: "+91-9876543212",
			Address:               model.Address{Street: "Bandra West", City: "Mumbai", State: "Maharashtra", Pincode: "400050"},
			PortfolioValue:        45000000,
			RiskAppetite:          model.RiskAggressive,
			InvestmentPreferences: []string{"equity", "derivatives"},
			RelationshipManager:   "Rajesh Mehta",
			OnboardingDate:        "2022-03-10",
			KYCStatus:             "completed",
			Category:              "sports_personality",
		},
		{
			ClientID: "C004", Name: "Deepika Padukone",
			Email: "deepika.padukone@email.com", Phone: "+91-9876543213",
			Address:               model.Address{Street: "Juhu", City: "Mumbai", State: "Maharashtra", Pincode: "400049"},
			PortfolioValue:        60000000,
			RiskAppetite:          model.RiskModerate,
			InvestmentPreferences: []string{"mutual_funds", "real_estate"},
			RelationshipManager:   "Neha Gupta",
			OnboardingDate:        "2021-11-05",
			KYCStatus:             "completed",
			Category:              "film_star",
		},
		{
			ClientID: "C005", Name: "Shah Rukh Khan",
			Email: "srk@email.com", Phone: "+91-9876543214",
			Address:               model.Address{Street: "Bandstand", City: "Mumbai", State: "Maharashtra", Pincode: "400050"},
			PortfolioValue:        100000000,
			RiskAppetite:          model.RiskConservative,
			InvestmentPreferences: []string{"mixed_portfolio", "international_funds"},
			RelationshipManager:   "Amit Kumar",
			OnboardingDate:        "2020-06-15",
			KYCStatus:             "completed",
			Category:              "film_star",
		},
	}
}

// SampleTransactions returns a fresh copy of the built-in investment records.
// Every client ID references a sample profile.
func SampleTransactions() []model.Transaction {
	return []model.Transaction{
		{ClientID: "C001", PortfolioValue: 50000000, RelationshipManager: "Amit Kumar", InvestmentType: "Equity"},
		{ClientID: "C002", PortfolioValue: 75000000, RelationshipManager: "Priya Singh", InvestmentType: "Mutual Funds"},
		{ClientID: "C003", PortfolioValue: 45000000, RelationshipManager: "Rajesh Mehta", InvestmentType: "Bonds"},
		{ClientID: "C004", PortfolioValue: 60000000, RelationshipManager: "Neha Gupta", InvestmentType: "Real Estate"},
		{ClientID: "C005", PortfolioValue: 100000000, RelationshipManager: "Amit Kumar", InvestmentType: "Mixed Portfolio"},
		{ClientID: "C001", PortfolioValue: 25000000, RelationshipManager: "Amit Kumar", InvestmentType: "Bonds"},
		{ClientID: "C002", PortfolioValue: 30000000, RelationshipManager: "Priya Singh", InvestmentType: "Fixed Deposits"},
		{ClientID: "C003", PortfolioValue: 20000000, RelationshipManager: "Rajesh Mehta", InvestmentType: "Equity"},
		{ClientID: "C004", PortfolioValue: 35000000, RelationshipManager: "Neha Gupta", InvestmentType: "Mutual Funds"},
		{ClientID: "C005", PortfolioValue: 50000000, RelationshipManager: "Amit Kumar", InvestmentType: "International Funds"},
		{ClientID: "C001", PortfolioValue: 10000000, RelationshipManager: "Amit Kumar", InvestmentType: "Gold"},
		{ClientID: "C003", PortfolioValue: 15000000, RelationshipManager: "Rajesh Mehta", InvestmentType: "Derivatives"},
		{ClientID: "C005", PortfolioValue: 25000000, RelationshipManager: "Amit Kumar", InvestmentType: "Real Estate"},
	}
}
