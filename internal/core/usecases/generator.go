package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/samirrijal/wanderlust/internal/core/domain"
	"github.com/samirrijal/wanderlust/internal/core/ports"
)

// RuleGenerator is a keyword-matching ports.ResponseGenerator. The first
// call of a session builds a seed itinerary for the matched destination;
// later calls append one day for the matched request category.
type RuleGenerator struct {
	picker ports.ReplyPicker
	clock  ports.Clock
}

// GeneratorOption configures a RuleGenerator.
type GeneratorOption func(*RuleGenerator)

// WithReplyPicker overrides the random reply selection.
func WithReplyPicker(p ports.ReplyPicker) GeneratorOption {
	return func(g *RuleGenerator) { g.picker = p }
}

// WithGeneratorClock sets the clock used to date new days.
func WithGeneratorClock(c ports.Clock) GeneratorOption {
	return func(g *RuleGenerator) { g.clock = c }
}

// NewRuleGenerator creates a RuleGenerator.
func NewRuleGenerator(opts ...GeneratorOption) *RuleGenerator {
	g := &RuleGenerator{picker: RandomPicker{}, clock: SystemClock{}}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate implements ports.ResponseGenerator.
func (g *RuleGenerator) Generate(ctx context.Context, text string, current *domain.Itinerary) (*domain.Generation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrInvalidInput
	}
	if !current.HasDays() {
		return g.bootstrap(text), nil
	}
	return g.followUp(text, current), nil
}

func (g *RuleGenerator) bootstrap(text string) *domain.Generation {
	dest := matchDestination(text)
	today := domain.NewDate(g.clock.Now())

	it := &domain.Itinerary{
		Title:       dest.Name + " Adventure",
		Description: fmt.Sprintf("A personalized %s experience", strings.ToLower(dest.Name)),
		MapViewport: domain.MapViewport{Center: dest.Center, Zoom: dest.Zoom},
	}
	for i, tmpl := range dest.Days {
		it.AppendDay(tmpl.build(domain.DatePtr(today.AddDays(i)), dest.Center, false))
	}

	return &domain.Generation{
		Reply:     fmt.Sprintf(bootstrapReplyFormat, text),
		Itinerary: it,
		Mode:      domain.ModeBootstrap,
		Category:  dest.Name,
	}
}

func (g *RuleGenerator) followUp(text string, current *domain.Itinerary) *domain.Generation {
	cat := matchCategory(text)
	it := current.Clone()

	placed := it.MapViewport.Zoom >= domain.CityZoom
	date := g.nextDate(it)
	it.AppendDay(cat.Day.build(date, it.MapViewport.Center, placed))

	return &domain.Generation{
		Reply:     g.picker.Pick(cat.Replies),
		Itinerary: it,
		Mode:      domain.ModeFollowUp,
		Category:  cat.Name,
	}
}

// nextDate is today + number of existing days, pushed past the last
// existing date so dates stay strictly increasing.
func (g *RuleGenerator) nextDate(it *domain.Itinerary) *domain.Date {
	next := domain.NewDate(g.clock.Now()).AddDays(len(it.Days))
	if last, ok := it.LastDate(); ok && !next.After(last.Time) {
		next = last.AddDays(1)
	}
	return &next
}

func (t dayTemplate) build(date *domain.Date, center domain.Coordinates, placeRelative bool) domain.Day {
	day := domain.Day{
		Date:       date,
		Summary:    t.Summary,
		Activities: make([]domain.Activity, 0, len(t.Activities)),
	}
	for _, a := range t.Activities {
		act := domain.Activity{
			Title:       a.Title,
			Time:        a.Time,
			Location:    a.Location,
			Description: a.Description,
		}
		switch {
		case a.At != nil:
			c := *a.At
			act.Coordinates = &c
		case a.Offset != nil && placeRelative:
			c := center.Offset(a.Offset.Lon(), a.Offset.Lat())
			if c.Valid() {
				act.Coordinates = &c
			}
		}
		day.Activities = append(day.Activities, act)
	}
	return day
}

var _ ports.ResponseGenerator = (*RuleGenerator)(nil)
