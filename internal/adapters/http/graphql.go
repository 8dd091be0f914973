package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"areascope/internal/core/domain"
)

// buildSchema creates the GraphQL read surface over the area state.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	areaType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Area",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.Float},
			"name":    &graphql.Field{Type: graphql.String},
			"visible": &graphql.Field{Type: graphql.Boolean},
			"color":   &graphql.Field{Type: graphql.String},
			"ring": &graphql.Field{
				Type: graphql.NewList(geoPointType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					area, ok := p.Source.(domain.Area)
					if !ok {
						return nil, nil
					}
					points := make([]map[string]interface{}, len(area.Ring))
					for i, pt := range area.Ring {
						points[i] = map[string]interface{}{"lat": pt.Lat, "lon": pt.Lon}
					}
					return points, nil
				},
			},
		},
	})

	modeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mode",
		Fields: graphql.Fields{
			"kind":   &graphql.Field{Type: graphql.String},
			"target": &graphql.Field{Type: graphql.Float},
		},
	})

	eventType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AreaEvent",
		Fields: graphql.Fields{
			"type": &graphql.Field{Type: graphql.String},
			"id":   &graphql.Field{Type: graphql.Float},
			"time": &graphql.Field{Type: graphql.String},
			"area": &graphql.Field{Type: areaType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"areas": &graphql.Field{
				Type:        graphql.NewList(areaType),
				Description: "All areas in insertion order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Areas.List(), nil
				},
			},
			"area": &graphql.Field{
				Type:        areaType,
				Description: "A single area by id",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := int64(p.Args["id"].(float64))
					area, ok := deps.Areas.Get(id)
					if !ok {
						return nil, nil
					}
					return area, nil
				},
			},
			"mode": &graphql.Field{
				Type:        modeType,
				Description: "The interaction mode of a session",
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					mode := deps.Sessions.CurrentMode(p.Args["session"].(string))
					return map[string]interface{}{
						"kind":   string(mode.Kind),
						"target": float64(mode.Target),
					}, nil
				},
			},
			"notice": &graphql.Field{
				Type:        graphql.String,
				Description: "The transient status message currently showing",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Notices.Current(), nil
				},
			},
			"history": &graphql.Field{
				Type:        graphql.NewList(eventType),
				Description: "Recent area mutations from the audit log",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.History == nil {
						return nil, nil
					}
					events, err := deps.History.ListRecent(p.Context, p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					var result []map[string]interface{}
					for _, ev := range events {
						m := map[string]interface{}{
							"type": string(ev.Type),
							"id":   float64(ev.ID),
							"time": ev.Time.Format("2006-01-02T15:04:05Z07:00"),
						}
						if ev.Area != nil {
							m["area"] = *ev.Area
						}
						result = append(result, m)
					}
					return result, nil
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
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
