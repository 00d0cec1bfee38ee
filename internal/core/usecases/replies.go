package usecases

import (
	"math/rand/v2"
	"sync"
)

// RandomPicker picks uniformly at random.
type RandomPicker struct{}

func (RandomPicker) Pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[rand.IntN(len(pool))]
}

// RotatingPicker cycles through the pool in order. It is deterministic and
// never returns the same entry twice in a row for pools larger than one.
type RotatingPicker struct {
	mu   sync.Mutex
	next int
}

func (p *RotatingPicker) Pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s := pool[p.next%len(pool)]
	p.next++
	return s
}

var (
	lodgingReplies = []string{
		"I've found several hotels that would be perfect for your trip. Would you like luxury options or more budget-friendly accommodations?",
		"I've added a hotel day to your roadmap. Let me know if you'd prefer somewhere closer to the center or with a view.",
	}

	foodReplies = []string{
		"I've added some fantastic local restaurants to your itinerary. These places are known for their authentic cuisine and great atmosphere!",
		"Your itinerary now has a full day of local food, from a morning cafe to a traditional dinner.",
	}

	highlightReplies = []string{
		"Great choice! I've updated your itinerary to include more local experiences. The roadmap now features authentic restaurants and hidden gems that locals love.",
		"Perfect! I've added some exciting activities based on your preferences. Your trip now includes both must-see attractions and off-the-beaten-path discoveries.",
		"Excellent suggestion! I've incorporated your feedback and enhanced the itinerary with personalized recommendations that match your travel style.",
		"Wonderful! Your updated itinerary now includes the experiences you mentioned, plus some surprise additions I think you'll love.",
		"I've considered your preferences and updated your travel itinerary. Is there anything specific you'd like to modify or any other activities you'd like to add?",
	}
)

const bootstrapReplyFormat = "Perfect! I'm creating a personalized itinerary for \"%s\". I've analyzed your preferences and found some amazing experiences. What dates were you thinking of traveling?"
