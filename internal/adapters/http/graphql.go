package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/pkg/geospatial"
)

// buildSchema creates the GraphQL schema wired to our services.
// Field names follow the JSON tags so graphql-go's default resolver applies.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	destinationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Destination",
		Fields: graphql.Fields{
			"index":    &graphql.Field{Type: graphql.Int},
			"name":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
		},
	})

	queueType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Queue",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.Int},
			"location": &graphql.Field{Type: geoPointType},
		},
	})

	targetType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Target",
		Fields: graphql.Fields{
			"mode":     &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"queue_id": &graphql.Field{Type: graphql.Int},
			"index":    &graphql.Field{Type: graphql.Int},
			"location": &graphql.Field{Type: geoPointType},
			"label": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if t, ok := p.Source.(domain.Target); ok {
						return t.Label(), nil
					}
					return nil, nil
				},
			},
		},
	})

	screenOffsetType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ScreenOffset",
		Fields: graphql.Fields{
			"x": &graphql.Field{Type: graphql.Float},
			"y": &graphql.Field{Type: graphql.Float},
		},
	})

	stateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NavigationState",
		Fields: graphql.Fields{
			"target":         &graphql.Field{Type: targetType},
			"bearing":        &graphql.Field{Type: graphql.Float},
			"distance_m":     &graphql.Field{Type: graphql.Float},
			"scale":          &graphql.Field{Type: graphql.Float},
			"visible":        &graphql.Field{Type: graphql.Boolean},
			"screen_offset":  &graphql.Field{Type: screenOffsetType},
			"arrow_rotation": &graphql.Field{Type: graphql.Float},
			"compass":        &graphql.Field{Type: graphql.String},
			"eta_minutes":    &graphql.Field{Type: graphql.Int},
			"arrived":        &graphql.Field{Type: graphql.Boolean},
			"computed_at":    &graphql.Field{Type: graphql.DateTime},
		},
	})

	pointArgs := func(prefix string) graphql.FieldConfigArgument {
		return graphql.FieldConfigArgument{
			prefix + "lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
			prefix + "lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		}
	}
	pairArgs := pointArgs("from_")
	for k, v := range pointArgs("to_") {
		pairArgs[k] = v
	}
	argPoint := func(args map[string]interface{}, prefix string) (domain.GeoPoint, error) {
		p := domain.GeoPoint{Lat: args[prefix+"lat"].(float64), Lon: args[prefix+"lon"].(float64)}
		if !p.Valid() {
			return p, fmt.Errorf("%slat/%slon: %w", prefix, prefix, domain.ErrInvalidLocation)
		}
		return p, nil
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"destinations": &graphql.Field{
				Type:        graphql.NewList(destinationType),
				Description: "The destination catalog in order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					dests, err := deps.Catalog.Destinations(p.Context)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, len(dests))
					for i, d := range dests {
						out[i] = map[string]interface{}{"index": i, "name": d.Name, "location": d.Location}
					}
					return out, nil
				},
			},
			"queues": &graphql.Field{
				Type:        graphql.NewList(queueType),
				Description: "Every queue",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Catalog.Queues(p.Context)
				},
			},
			"bestQueue": &graphql.Field{
				Type:        queueType,
				Description: "The queue selected by the configured policy",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.Float},
					"lon": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var origin *domain.GeoPoint
					lat, hasLat := p.Args["lat"].(float64)
					lon, hasLon := p.Args["lon"].(float64)
					if hasLat != hasLon {
						return nil, fmt.Errorf("lat and lon must be given together")
					}
					if hasLat {
						origin = &domain.GeoPoint{Lat: lat, Lon: lon}
					}
					return deps.Queues.BestQueue(p.Context, origin)
				},
			},
			"bearing": &graphql.Field{
				Type:        graphql.Float,
				Description: "Initial great-circle bearing in degrees, [0, 360)",
				Args:        pairArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					from, err := argPoint(p.Args, "from_")
					if err != nil {
						return nil, err
					}
					to, err := argPoint(p.Args, "to_")
					if err != nil {
						return nil, err
					}
					return geospatial.Bearing(from.Lat, from.Lon, to.Lat, to.Lon), nil
				},
			},
			"distance": &graphql.Field{
				Type:        graphql.Float,
				Description: "Haversine distance in meters",
				Args:        pairArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					from, err := argPoint(p.Args, "from_")
					if err != nil {
						return nil, err
					}
					to, err := argPoint(p.Args, "to_")
					if err != nil {
						return nil, err
					}
					return geospatial.Haversine(from.Lat, from.Lon, to.Lat, to.Lon), nil
				},
			},
			"navigate": &graphql.Field{
				Type:        stateType,
				Description: "One navigation tick",
				Args: graphql.FieldConfigArgument{
					"lat":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"alpha":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"beta":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"gamma":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"destination": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					origin, err := argPoint(p.Args, "")
					if err != nil {
						return nil, err
					}
					selector, _ := p.Args["destination"].(string)
					if selector == "" {
						selector = deps.DefaultDestination
					}
					target, err := deps.Navigation.ResolveTarget(p.Context, selector, &origin)
					if err != nil {
						return nil, err
					}
					o := domain.DeviceOrientation{
						Alpha: p.Args["alpha"].(float64),
						Beta:  p.Args["beta"].(float64),
						Gamma: p.Args["gamma"].(float64),
					}
					return deps.Navigation.Navigate(p.Context, origin, o, target), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
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
