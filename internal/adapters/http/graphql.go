package http

import (
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/filter"
)

// toGraphQL converts a value to the map form graphql-go's default resolver
// reads by JSON field name. Embedded structs are flattened the way
// encoding/json flattens them.
func toGraphQL(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	dealType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Deal",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.Int},
			"title":     &graphql.Field{Type: graphql.String},
			"status":    &graphql.Field{Type: graphql.String},
			"starts_at": &graphql.Field{Type: graphql.String},
			"ends_at":   &graphql.Field{Type: graphql.String},
		},
	})

	businessFields := func() graphql.Fields {
		return graphql.Fields{
			"id":           &graphql.Field{Type: graphql.Int},
			"name":         &graphql.Field{Type: graphql.String},
			"address":      &graphql.Field{Type: graphql.String},
			"categories":   &graphql.Field{Type: graphql.NewList(graphql.String)},
			"city":         &graphql.Field{Type: graphql.String},
			"district":     &graphql.Field{Type: graphql.String},
			"location":     &graphql.Field{Type: geoPointType},
			"rating":       &graphql.Field{Type: graphql.Float},
			"review_count": &graphql.Field{Type: graphql.Int},
			"view_count":   &graphql.Field{Type: graphql.Int},
			"verified":     &graphql.Field{Type: graphql.Boolean},
			"featured":     &graphql.Field{Type: graphql.Boolean},
			"deals":        &graphql.Field{Type: graphql.NewList(dealType)},
			"joined_at":    &graphql.Field{Type: graphql.String},
			"open_now":     &graphql.Field{Type: graphql.Boolean},
			"active_deals": &graphql.Field{Type: graphql.Int},
		}
	}

	cardType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Card",
		Fields: businessFields(),
	})

	detailFields := businessFields()
	detailFields["open_because"] = &graphql.Field{Type: graphql.String}
	businessType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Business",
		Fields: detailFields,
	})

	tagType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Tag",
		Fields: graphql.Fields{
			"key":   &graphql.Field{Type: graphql.String},
			"label": &graphql.Field{Type: graphql.String},
		},
	})

	pageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Pagination",
		Fields: graphql.Fields{
			"page":        &graphql.Field{Type: graphql.Int},
			"total_pages": &graphql.Field{Type: graphql.Int},
			"has_prev":    &graphql.Field{Type: graphql.Boolean},
			"has_next":    &graphql.Field{Type: graphql.Boolean},
			"pages":       &graphql.Field{Type: graphql.NewList(graphql.Int)},
		},
	})

	searchType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SearchResult",
		Fields: graphql.Fields{
			"query":       &graphql.Field{Type: graphql.String},
			"phase":       &graphql.Field{Type: graphql.String},
			"error":       &graphql.Field{Type: graphql.String},
			"total_count": &graphql.Field{Type: graphql.Int},
			"items":       &graphql.Field{Type: graphql.NewList(cardType)},
			"tags":        &graphql.Field{Type: graphql.NewList(tagType)},
			"pagination":  &graphql.Field{Type: pageType},
		},
	})

	openType := graphql.NewObject(graphql.ObjectConfig{
		Name: "OpenStatus",
		Fields: graphql.Fields{
			"business_id": &graphql.Field{Type: graphql.Int},
			"at":          &graphql.Field{Type: graphql.String},
			"open":        &graphql.Field{Type: graphql.Boolean},
			"because":     &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"search": &graphql.Field{
				Type:        searchType,
				Description: "Search the directory with the same keys as the address bar",
				Args: graphql.FieldConfigArgument{
					"keyword":  &graphql.ArgumentConfig{Type: graphql.String},
					"category": &graphql.ArgumentConfig{Type: graphql.String},
					"location": &graphql.ArgumentConfig{Type: graphql.String},
					"district": &graphql.ArgumentConfig{Type: graphql.String},
					"sort":     &graphql.ArgumentConfig{Type: graphql.String},
					"deals":    &graphql.ArgumentConfig{Type: graphql.Boolean},
					"verified": &graphql.ArgumentConfig{Type: graphql.Boolean},
					"open":     &graphql.ArgumentConfig{Type: graphql.Boolean},
					"page":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					v := url.Values{}
					for key, arg := range p.Args {
						switch a := arg.(type) {
						case string:
							v.Set(key, a)
						case bool:
							if a {
								v.Set(key, "true")
							}
						case int:
							v.Set(key, strconv.Itoa(a))
						}
					}
					snap := deps.Directory.Search(p.Context, filter.Parse(v), nil, false)
					return toGraphQL(snap)
				},
			},
			"business": &graphql.Field{
				Type:        businessType,
				Description: "Get a business by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(int)
					b, err := deps.Directory.Business(p.Context, int64(id))
					if errors.Is(err, domain.ErrNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return toGraphQL(b)
				},
			},
			"isOpen": &graphql.Field{
				Type:        openType,
				Description: "Evaluate a business's opening hours at an RFC 3339 time (default now)",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"at": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(int)
					var at time.Time
					if raw, ok := p.Args["at"].(string); ok && raw != "" {
						t, err := time.Parse(time.RFC3339, raw)
						if err != nil {
							return nil, errors.New("at must be an RFC 3339 timestamp")
						}
						at = t
					}
					st, err := deps.Directory.IsOpen(p.Context, int64(id), at)
					if errors.Is(err, domain.ErrNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return toGraphQL(st)
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
