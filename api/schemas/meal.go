package schemas

import "strings"

// MealPlan is the normalised board basis of a tour.
type MealPlan string

const (
	MealUltraAllInclusive MealPlan = "Ultra All Inclusive"
	MealAllInclusive      MealPlan = "All Inclusive"
	MealFullBoard         MealPlan = "Full Board"
	MealHalfBoard         MealPlan = "Half Board"
	MealBedAndBreakfast   MealPlan = "Bed & Breakfast"
)

// MealAny is the request default meaning no meal preference.
const MealAny = "any"

// MealPlans lists the plans from most to least specific.
func MealPlans() []MealPlan {
	return []MealPlan{MealUltraAllInclusive, MealAllInclusive, MealFullBoard, MealHalfBoard, MealBedAndBreakfast}
}

var mealAliases = map[string]MealPlan{
	"ultra all inclusive": MealUltraAllInclusive,
	"uai":                 MealUltraAllInclusive,
	"ультра все включено": MealUltraAllInclusive,
	"all inclusive":       MealAllInclusive,
	"ai":                  MealAllInclusive,
	"все включено":        MealAllInclusive,
	"full board":          MealFullBoard,
	"fb":                  MealFullBoard,
	"полный пансион":      MealFullBoard,
	"half board":          MealHalfBoard,
	"hb":                  MealHalfBoard,
	"полупансион":         MealHalfBoard,
	"завтрак и ужин":      MealHalfBoard,
	"bed & breakfast":     MealBedAndBreakfast,
	"bb":                  MealBedAndBreakfast,
	"завтрак":             MealBedAndBreakfast,
}

// IsAnyMeal reports whether a meal preference places no constraint.
func IsAnyMeal(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", MealAny, "любой", "любое":
		return true
	}
	return false
}

// ParseMealPlan maps a display name or a common alias to a MealPlan.
func ParseMealPlan(s string) (MealPlan, bool) {
	p, ok := mealAliases[strings.ToLower(strings.TrimSpace(s))]
	return p, ok
}
