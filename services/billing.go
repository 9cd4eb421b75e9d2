package services

import (
	"strings"
	"time"

	"movieflix/models"
)

const (
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"

	PriceMonthly = 299
	PriceYearly  = 2999

	defaultPlanDays = 30
)

var planCatalog = []models.Plan{
	{
		ID:       PlanMonthly,
		Name:     "Monthly Plan",
		Price:    PriceMonthly,
		Currency: "INR",
		Duration: "30 days",
		Features: []string{"Unlimited movies", "HD quality", "Watch on any device"},
	},
	{
		ID:       PlanYearly,
		Name:     "Yearly Plan",
		Price:    PriceYearly,
		Currency: "INR",
		Duration: "365 days",
		Features: []string{"Unlimited movies", "4K quality", "Watch on any device", "2 months free"},
	},
}

// Plans returns a copy of the static catalog.
func Plans() []models.Plan {
	out := make([]models.Plan, len(planCatalog))
	for i, p := range planCatalog {
		p.Features = append([]string(nil), p.Features...)
		out[i] = p
	}
	return out
}

func IsValidPlan(plan string) bool {
	p := strings.ToLower(plan)
	return p == PlanMonthly || p == PlanYearly
}

// PlanAmount returns the plan price in major currency units, 0 for unknown plans.
func PlanAmount(plan string) int64 {
	switch strings.ToLower(plan) {
	case PlanMonthly:
		return PriceMonthly
	case PlanYearly:
		return PriceYearly
	default:
		return 0
	}
}

func PlanEndDate(plan string, start time.Time) time.Time {
	switch strings.ToLower(plan) {
	case PlanYearly:
		return start.AddDate(0, 0, 365)
	case PlanMonthly:
		return start.AddDate(0, 0, 30)
	default:
		// Unrecognized plans still get the monthly window.
		return start.AddDate(0, 0, defaultPlanDays)
	}
}
