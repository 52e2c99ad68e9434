package recommend

// Vocabulary is the closed set of place-category tags the oracle is allowed
// to return. Anything outside this list is discarded during validation.
var Vocabulary = []string{
	"amusement_park", "aquarium", "art_gallery", "bakery", "bar",
	"beauty_salon", "book_store", "bowling_alley", "cafe", "campground",
	"casino", "cemetery", "church", "city_hall", "clothing_store",
	"convenience_store", "department_store", "drugstore", "electronics_store",
	"florist", "gym", "hair_care", "hardware_store", "hindu_temple",
	"jewelry_store", "library", "liquor_store", "lodging", "meal_takeaway",
	"mosque", "movie_theater", "museum", "night_club", "painter", "park",
	"restaurant", "shoe_store", "shopping_mall", "spa", "stadium", "store",
	"supermarket", "tourist_attraction", "university", "veterinary_care", "zoo",
}

// FallbackTypes are always-safe tags unioned into inferred type sets
var FallbackTypes = []string{"tourist_attraction", "museum", "park"}

var vocabularySet = func() map[string]bool {
	set := make(map[string]bool, len(Vocabulary))
	for _, v := range Vocabulary {
		set[v] = true
	}
	return set
}()

var foodTypes = map[string]bool{
	"bakery":        true,
	"bar":           true,
	"cafe":          true,
	"meal_takeaway": true,
	"restaurant":    true,
}

// FilterToVocabulary keeps only known tags, preserving order and dropping
// duplicates.
func FilterToVocabulary(tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if vocabularySet[tag] && !seen[tag] {
			out = append(out, tag)
			seen[tag] = true
		}
	}
	return out
}

// IsFoodPlace reports whether any of a place's tags mark it as food-related.
// Untagged places count as non-food.
func IsFoodPlace(tags []string) bool {
	for _, tag := range tags {
		if foodTypes[tag] {
			return true
		}
	}
	return false
}
