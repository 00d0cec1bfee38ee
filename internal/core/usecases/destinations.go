package usecases

import (
	"strings"
	"unicode"

	"github.com/samirrijal/wanderlust/internal/core/domain"
)

// destination is a known bootstrap seed: where it is and what the first days look like.
type destination struct {
	Name     string
	Keywords []string
	Center   domain.Coordinates
	Zoom     float64
	Days     []dayTemplate
}

type dayTemplate struct {
	Summary    string
	Activities []activityTemplate
}

type activityTemplate struct {
	Title       string
	Time        string
	Location    string
	Description string
	// At is an absolute position; nil means "no coordinates".
	At *domain.Coordinates
	// Offset is relative to the itinerary viewport centre, used by follow-up templates.
	Offset *domain.Coordinates
}

func at(lon, lat float64) *domain.Coordinates {
	return &domain.Coordinates{lon, lat}
}

func arrivalDay(hotel, dinner *domain.Coordinates) dayTemplate {
	return dayTemplate{
		Summary: "Arrival and First Impressions",
		Activities: []activityTemplate{
			{Title: "Airport Transfer & Hotel Check-in", Time: "14:00", Location: "City Center Hotel", Description: "Settle in and get oriented", At: hotel},
			{Title: "Welcome Dinner", Time: "19:00", Location: "Local Restaurant", Description: "Taste authentic local cuisine", At: dinner},
		},
	}
}

// destinations is in keyword priority order; the first match wins.
var destinations = []destination{
	{
		Name:     "Tokyo",
		Keywords: []string{"tokyo"},
		Center:   domain.Coordinates{139.7525, 35.6846},
		Zoom:     12,
		Days: []dayTemplate{
			arrivalDay(at(139.7525, 35.6846), at(139.7675, 35.6762)),
			{
				Summary: "Temples and Traditional Tokyo",
				Activities: []activityTemplate{
					{Title: "Senso-ji Temple", Time: "09:00", Location: "Asakusa", Description: "Tokyo's oldest temple and its lantern gate", At: at(139.7967, 35.7148)},
					{Title: "Lunch on Nakamise Street", Time: "12:30", Location: "Nakamise-dori", At: at(139.7955, 35.7118)},
					{Title: "Ueno Park", Time: "15:00", Location: "Ueno", Description: "Museums and a stroll around Shinobazu Pond", At: at(139.7713, 35.7156)},
				},
			},
			{
				Summary: "Modern Tokyo",
				Activities: []activityTemplate{
					{Title: "Meiji Shrine", Time: "09:30", Location: "Shibuya", At: at(139.6993, 35.6764)},
					{Title: "Takeshita Street", Time: "12:00", Location: "Harajuku", At: at(139.7027, 35.6715)},
					{Title: "Shibuya Crossing at night", Time: "18:00", Location: "Shibuya", At: at(139.7005, 35.6595)},
				},
			},
		},
	},
	{
		Name:     "Paris",
		Keywords: []string{"paris"},
		Center:   domain.Coordinates{2.3522, 48.8566},
		Zoom:     12,
		Days: []dayTemplate{
			arrivalDay(at(2.3522, 48.8566), at(2.3387, 48.8606)),
			{
				Summary: "Icons of Paris",
				Activities: []activityTemplate{
					{Title: "Eiffel Tower", Time: "09:00", Location: "Champ de Mars", At: at(2.2945, 48.8584)},
					{Title: "Seine River Cruise", Time: "14:00", Location: "Port de la Bourdonnais", At: at(2.2950, 48.8600)},
					{Title: "Dinner in Saint-Germain", Time: "19:30", Location: "Saint-Germain-des-Prés", At: at(2.3339, 48.8539)},
				},
			},
			{
				Summary: "Art and Neighborhoods",
				Activities: []activityTemplate{
					{Title: "Louvre Museum", Time: "09:30", Location: "Rue de Rivoli", At: at(2.3376, 48.8606)},
					{Title: "Montmartre and Sacré-Cœur", Time: "14:00", Location: "Montmartre", At: at(2.3431, 48.8867)},
					{Title: "Evening in Le Marais", Time: "18:00", Location: "Le Marais", At: at(2.3622, 48.8575)},
				},
			},
		},
	},
	{
		Name:     "Costa Rica",
		Keywords: []string{"costa rica"},
		Center:   domain.Coordinates{-84.0907, 9.7489},
		Zoom:     12,
		Days: []dayTemplate{
			arrivalDay(at(-84.0907, 9.7489), at(-84.0807, 9.7389)),
			{
				Summary: "Volcanoes and Hot Springs",
				Activities: []activityTemplate{
					{Title: "Arenal Volcano hike", Time: "08:00", Location: "Arenal Volcano National Park", At: at(-84.7031, 10.4626)},
					{Title: "Tabacón Hot Springs", Time: "16:00", Location: "La Fortuna", At: at(-84.7258, 10.4928)},
				},
			},
			{
				Summary: "Cloud Forest",
				Activities: []activityTemplate{
					{Title: "Monteverde Cloud Forest Reserve", Time: "07:30", Location: "Monteverde", At: at(-84.8016, 10.3009)},
					{Title: "Hanging Bridges", Time: "13:00", Location: "Monteverde", At: at(-84.7975, 10.3337)},
				},
			},
		},
	},
	{
		Name:     "California",
		Keywords: []string{"california"},
		Center:   domain.Coordinates{-118.2437, 34.0522},
		Zoom:     12,
		Days: []dayTemplate{
			arrivalDay(at(-118.2437, 34.0522), at(-118.2551, 34.0467)),
			{
				Summary: "Coastal Los Angeles",
				Activities: []activityTemplate{
					{Title: "Santa Monica Pier", Time: "10:00", Location: "Santa Monica", At: at(-118.4973, 34.0094)},
					{Title: "Venice Beach Boardwalk", Time: "13:00", Location: "Venice", At: at(-118.4729, 33.9850)},
					{Title: "Sunset at Griffith Observatory", Time: "18:30", Location: "Griffith Park", At: at(-118.3004, 34.1184)},
				},
			},
			{
				Summary: "Pacific Coast Highway",
				Activities: []activityTemplate{
					{Title: "Drive to Malibu", Time: "09:00", Location: "Malibu", At: at(-118.7798, 34.0259)},
					{Title: "El Matador State Beach", Time: "12:00", Location: "Malibu", At: at(-118.8747, 34.0382)},
				},
			},
		},
	},
}

// genericDestination is used when no keyword matches. It has no known
// position, so its activities carry no coordinates.
var genericDestination = destination{
	Name:   "Your Destination",
	Center: domain.Coordinates{0, 0},
	Zoom:   2,
	Days: []dayTemplate{
		arrivalDay(nil, nil),
		{
			Summary: "Exploring the highlights",
			Activities: []activityTemplate{
				{Title: "Guided walking tour", Time: "10:00", Location: "Old Town"},
				{Title: "Lunch at a local favorite", Time: "13:00", Location: "Local Cafe"},
				{Title: "Viewpoint at sunset", Time: "18:00", Location: "Scenic Lookout"},
			},
		},
		{
			Summary: "Local Culture",
			Activities: []activityTemplate{
				{Title: "Morning market", Time: "09:00", Location: "Central Market"},
				{Title: "History museum", Time: "14:00", Location: "City Museum"},
			},
		},
	},
}

// Follow-up categories, checked in this order.
const (
	categoryLodging    = "lodging"
	categoryFood       = "food"
	categoryHighlights = "highlights"
)

type followUpCategory struct {
	Name     string
	Keywords []string
	Replies  []string
	Day      dayTemplate
}

func offset(dLon, dLat float64) *domain.Coordinates {
	return &domain.Coordinates{dLon, dLat}
}

var followUpCategories = []followUpCategory{
	{
		Name:     categoryLodging,
		Keywords: []string{"hotel", "hotels", "hostel", "accommodation", "accommodations", "lodging", "resort", "airbnb", "stay"},
		Replies:  lodgingReplies,
		Day: dayTemplate{
			Summary: "Hotel check-in and exploring the area",
			Activities: []activityTemplate{
				{Title: "Check-in at hotel", Time: "15:00", Location: "City Center Hotel", Offset: offset(0, 0)},
				{Title: "Evening walk around the neighborhood", Time: "18:00", Location: "Hotel District", Offset: offset(0.004, 0.003)},
			},
		},
	},
	{
		Name:     categoryFood,
		Keywords: []string{"restaurant", "restaurants", "food", "eat", "dinner", "lunch", "breakfast", "cuisine", "cafe"},
		Replies:  foodReplies,
		Day: dayTemplate{
			Summary: "Culinary exploration day",
			Activities: []activityTemplate{
				{Title: "Breakfast at local cafe", Time: "09:00", Location: "Morning Brew Cafe", Offset: offset(-0.003, 0.002)},
				{Title: "Food tour", Time: "13:00", Location: "City Center", Offset: offset(0, 0)},
				{Title: "Dinner at recommended restaurant", Time: "19:00", Location: "Traditional Restaurant", Offset: offset(0.005, -0.002)},
			},
		},
	},
}

var highlightsCategory = followUpCategory{
	Name:    categoryHighlights,
	Replies: highlightReplies,
	Day: dayTemplate{
		Summary: "Exploring the highlights",
		Activities: []activityTemplate{
			{Title: "Visit main attractions", Time: "10:00", Location: "City Center", Offset: offset(0, 0)},
			{Title: "Lunch break", Time: "13:00", Location: "Local Cafe", Offset: offset(0.002, 0.002)},
			{Title: "Shopping and relaxation", Time: "15:00", Location: "Shopping District", Offset: offset(-0.004, 0.003)},
		},
	},
}

func matchDestination(text string) destination {
	for _, d := range destinations {
		for _, kw := range d.Keywords {
			if containsKeyword(text, kw) {
				return d
			}
		}
	}
	return genericDestination
}

func matchCategory(text string) followUpCategory {
	for _, c := range followUpCategories {
		for _, kw := range c.Keywords {
			if containsKeyword(text, kw) {
				return c
			}
		}
	}
	return highlightsCategory
}

// containsKeyword is a case-insensitive whole-word match, so "eat" does not
// match "great".
func containsKeyword(text, keyword string) bool {
	text = strings.ToLower(text)
	keyword = strings.ToLower(keyword)
	for start := 0; ; {
		i := strings.Index(text[start:], keyword)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(keyword)
		if boundaryBefore(text, i) && boundaryAfter(text, end) {
			return true
		}
		start = i + 1
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r := rune(s[i-1])
	return r < 0x80 && !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r := rune(s[i])
	return r < 0x80 && !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
