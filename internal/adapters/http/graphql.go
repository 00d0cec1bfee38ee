package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/wanderlust/internal/core/domain"
	"github.com/samirrijal/wanderlust/internal/pkg/geospatial"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lon": &graphql.Field{Type: graphql.Float},
			"lat": &graphql.Field{Type: graphql.Float},
		},
	})

	activityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Activity",
		Fields: graphql.Fields{
			"title":       &graphql.Field{Type: graphql.String},
			"time":        &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"coordinates": &graphql.Field{Type: geoPointType},
		},
	})

	dayType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Day",
		Fields: graphql.Fields{
			"day":        &graphql.Field{Type: graphql.Int},
			"date":       &graphql.Field{Type: graphql.String},
			"summary":    &graphql.Field{Type: graphql.String},
			"activities": &graphql.Field{Type: graphql.NewList(activityType)},
			"distanceKm": &graphql.Field{
				Type:        graphql.Float,
				Description: "Great-circle distance between consecutive located activities",
			},
		},
	})

	viewportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapViewport",
		Fields: graphql.Fields{
			"center": &graphql.Field{Type: geoPointType},
			"zoom":   &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"minLat": &graphql.Field{Type: graphql.Float},
			"minLon": &graphql.Field{Type: graphql.Float},
			"maxLat": &graphql.Field{Type: graphql.Float},
			"maxLon": &graphql.Field{Type: graphql.Float},
		},
	})

	itineraryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Itinerary",
		Fields: graphql.Fields{
			"title":       &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"days":        &graphql.Field{Type: graphql.NewList(dayType)},
			"mapViewport": &graphql.Field{Type: viewportType},
			"bounds":      &graphql.Field{
				Type:        boundsType,
				Description: "Box around every located activity; null when none is located",
			},
		},
	})

	messageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Message",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.Int},
			"content":   &graphql.Field{Type: graphql.String},
			"role":      &graphql.Field{Type: graphql.String},
			"createdAt": &graphql.Field{Type: graphql.String},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"state":      &graphql.Field{Type: graphql.String},
			"transcript": &graphql.Field{Type: graphql.NewList(messageType)},
			"itinerary":  &graphql.Field{Type: itineraryType},
			"updatedAt":  &graphql.Field{Type: graphql.String},
		},
	})

	submitResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SubmitResult",
		Fields: graphql.Fields{
			"accepted": &graphql.Field{Type: graphql.Boolean},
			"state":    &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "Get a roadmap session by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					snap, err := deps.Sessions.Snapshot(p.Context, id)
					if err != nil {
						return nil, err
					}
					return sessionMap(snap), nil
				},
			},
			"itinerary": &graphql.Field{
				Type:        itineraryType,
				Description: "Current itinerary of a session, null before the first reply",
				Args: graphql.FieldConfigArgument{
					"sessionId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					it, err := deps.Sessions.Itinerary(p.Args["sessionId"].(string))
					if err != nil || it == nil {
						return nil, err
					}
					return itineraryMap(it), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"submitMessage": &graphql.Field{
				Type:        submitResultType,
				Description: "Send a user message to a session",
				Args: graphql.FieldConfigArgument{
					"sessionId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"text":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["sessionId"].(string)
					text := p.Args["text"].(string)
					if err := deps.Sessions.Submit(p.Context, id, text); err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"accepted": true,
						"state":    string(domain.StateGenerating),
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func pointMap(c domain.Coordinates) map[string]interface{} {
	return map[string]interface{}{"lon": c.Lon(), "lat": c.Lat()}
}

func itineraryMap(it *domain.Itinerary) map[string]interface{} {
	days := make([]map[string]interface{}, 0, len(it.Days))
	for _, d := range it.Days {
		days = append(days, dayMap(d))
	}
	m := map[string]interface{}{
		"title":       it.Title,
		"description": it.Description,
		"days":        days,
		"mapViewport": map[string]interface{}{
			"center": pointMap(it.MapViewport.Center),
			"zoom":   it.MapViewport.Zoom,
		},
	}
	if b, ok := it.Bounds(); ok {
		m["bounds"] = map[string]interface{}{
			"minLat": b.MinLat,
			"minLon": b.MinLon,
			"maxLat": b.MaxLat,
			"maxLon": b.MaxLon,
		}
	}
	return m
}

func dayMap(d domain.Day) map[string]interface{} {
	activities := make([]map[string]interface{}, 0, len(d.Activities))
	var path [][2]float64
	for _, a := range d.Activities {
		am := map[string]interface{}{
			"title":       a.Title,
			"time":        a.Time,
			"location":    a.Location,
			"description": a.Description,
		}
		if a.Coordinates != nil {
			am["coordinates"] = pointMap(*a.Coordinates)
			path = append(path, [2]float64(*a.Coordinates))
		}
		activities = append(activities, am)
	}

	m := map[string]interface{}{
		"day":        d.Day,
		"summary":    d.Summary,
		"activities": activities,
		"distanceKm": geospatial.PathKm(path),
	}
	if d.Date != nil {
		m["date"] = d.Date.String()
	}
	return m
}

func sessionMap(s *domain.SessionSnapshot) map[string]interface{} {
	transcript := make([]map[string]interface{}, 0, len(s.Transcript))
	for _, msg := range s.Transcript {
		transcript = append(transcript, map[string]interface{}{
			"id":        int(msg.ID),
			"content":   msg.Content,
			"role":      string(msg.Role),
			"createdAt": msg.CreatedAt.Format(time.RFC3339),
		})
	}
	m := map[string]interface{}{
		"id":         s.ID,
		"state":      string(s.State),
		"transcript": transcript,
		"updatedAt":  s.UpdatedAt.Format(time.RFC3339),
	}
	if s.Itinerary != nil {
		m["itinerary"] = itineraryMap(s.Itinerary)
	}
	return m
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
