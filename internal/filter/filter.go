// Package filter compiles the record-level client predicate from raw query text.
//
// The vocabulary is a fixed, order-sensitive rule table: within each dimension
// the first matching trigger wins, and dimensions combine with logical AND.
package filter

import (
	"fmt"
	"strings"

	"github.com/wealth-query-agent/internal/model"
)

type locationRule struct {
	trigger  string
	location string
}

// locationRules are checked in order; the first trigger found wins.
var locationRules = []locationRule{
	{"mumbai", "Mumbai"},
	{"ranchi", "Ranchi"},
}

// riskRules are checked in this literal order.
var riskRules = []model.RiskCategory{
	model.RiskConservative,
	model.RiskModerate,
	model.RiskAggressive,
}

type entityRule struct {
	triggers []string
	name     string
}

// entityRules map trigger words onto a canonical client-name substring.
var entityRules = []entityRule{
	{[]string{"virat", "kohli"}, "Virat Kohli"},
	{[]string{"dhoni"}, "Dhoni"},
	{[]string{"rohit"}, "Rohit Sharma"},
	{[]string{"deepika", "padukone"}, "Deepika Padukone"},
	{[]string{"shah rukh", "shahrukh", "srk"}, "Shah Rukh Khan"},
}

// Predicate is an immutable boolean test over a client profile.
// The zero value matches every profile.
type Predicate struct {
	location     string
	risk         model.RiskCategory
	nameContains string
}

// Compile derives the predicate for a query. It is a pure function of the text.
func Compile(query string) Predicate {
	q := strings.ToLower(query)
	var p Predicate

	for _, rule := range locationRules {
		if strings.Contains(q, rule.trigger) {
			p.location = rule.location
			break
		}
	}

	for _, risk := range riskRules {
		if strings.Contains(q, string(risk)) {
			p.risk = risk
			break
		}
	}

entities:
	for _, rule := range entityRules {
		for _, trigger := range rule.triggers {
			if strings.Contains(q, trigger) {
				p.nameContains = rule.name
				break entities
			}
		}
	}

	return p
}

// Location returns the required city, or "" when unconstrained.
func (p Predicate) Location() string { return p.location }

// Risk returns the required risk category, or "" when unconstrained.
func (p Predicate) Risk() model.RiskCategory { return p.risk }

// NameContains returns the required client-name substring, or "" when unconstrained.
func (p Predicate) NameContains() string { return p.nameContains }

// IsTrivial reports whether the predicate matches everything.
func (p Predicate) IsTrivial() bool {
	return p.location == "" && p.risk == "" && p.nameContains == ""
}

// Match reports whether the profile satisfies every set constraint.
// Comparisons are case-insensitive.
func (p Predicate) Match(c model.ClientProfile) bool {
	if p.location != "" && !strings.EqualFold(c.Address.City, p.location) {
		return false
	}
	if p.risk != "" && !strings.EqualFold(string(c.RiskAppetite), string(p.risk)) {
		return false
	}
	if p.nameContains != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(p.nameContains)) {
		return false
	}
	return true
}

// Apply returns the profiles that satisfy the predicate, preserving order.
// The input slice is not modified.
func (p Predicate) Apply(profiles []model.ClientProfile) []model.ClientProfile {
	if p.IsTrivial() {
		return append([]model.ClientProfile(nil), profiles...)
	}
	out := make([]model.ClientProfile, 0, len(profiles))
	for _, c := range profiles {
		if p.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

// String renders the predicate for logs
func (p Predicate) String() string {
	if p.IsTrivial() {
		return "true"
	}
	var parts []string
	if p.location != "" {
		parts = append(parts, fmt.Sprintf("location=%s", p.location))
	}
	if p.risk != "" {
		parts = append(parts, fmt.Sprintf("risk=%s", p.risk))
	}
	if p.nameContains != "" {
		parts = append(parts, fmt.Sprintf("name~%s", p.nameContains))
	}
	return strings.Join(parts, " AND ")
}
