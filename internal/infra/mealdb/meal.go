package mealdb

import (
	"fmt"
	"strconv"
	"strings"

	"recipe-box/internal/domain/entity"
)

// maxIngredientSlots is the number of numbered strIngredientN/strMeasureN pairs in a meal.
const maxIngredientSlots = 20

// mealsResponse is the envelope of search.php and lookup.php.
// "meals" is null when nothing matched.
type mealsResponse struct {
	Meals []meal `json:"meals"`
}

// meal is decoded loosely: every field may be a string, null or absent.
type meal map[string]any

func (m meal) str(key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// ingredients flattens the numbered pairs into "ingredient - measure", or
// "ingredient" alone when the measure is blank. Blank ingredients are skipped.
func (m meal) ingredients() []string {
	out := make([]string, 0, maxIngredientSlots)
	for i := 1; i <= maxIngredientSlots; i++ {
		ing := m.str("strIngredient" + strconv.Itoa(i))
		if ing == "" {
			continue
		}
		if measure := m.str("strMeasure" + strconv.Itoa(i)); measure != "" {
			ing = ing + " - " + measure
		}
		out = append(out, ing)
	}
	return out
}

// toRecipe maps a remote meal into a Recipe. Remote recipes are never local.
func (m meal) toRecipe() entity.Recipe {
	return entity.Recipe{
		ID:           m.str("idMeal"),
		Name:         m.str("strMeal"),
		Category:     m.str("strCategory"),
		Area:         m.str("strArea"),
		ImageURL:     m.str("strMealThumb"),
		Ingredients:  m.ingredients(),
		Instructions: m.str("strInstructions"),
		IsLocal:      false,
	}
}

func toRecipes(meals []meal) []entity.Recipe {
	out := make([]entity.Recipe, 0, len(meals))
	for _, m := range meals {
		if m == nil {
			continue
		}
		out = append(out, m.toRecipe())
	}
	return out
}
