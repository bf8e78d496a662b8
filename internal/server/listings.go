package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"brokerdesk/internal/domain"
	"brokerdesk/internal/engine"
	"brokerdesk/internal/views"
)

type propertyBody struct {
	Body domain.Property `json:"body"`
}

func registerProperties(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-property",
		Method:        http.MethodPost,
		Path:          "/properties",
		Summary:       "Create property listing",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreatePropertyRequest `json:"body"`
	}) (*propertyBody, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		b := input.Body
		p, err := e.CreateProperty(ctx, engine.PropertyCreateOptions{
			ActorID:      actor,
			Title:        b.Title,
			Description:  b.Description,
			Address:      b.Address,
			Latitude:     b.Latitude,
			Longitude:    b.Longitude,
			Status:       b.Status,
			PropertyType: b.PropertyType,
			OfferType:    b.OfferType,
			OwnerID:      b.OwnerID,
			ImageURL:     b.ImageURL,
			Details:      b.Details,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &propertyBody{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-properties",
		Method:      http.MethodGet,
		Path:        "/properties",
		Summary:     "Search, filter and sort listings",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Search    string `query:"q"`
		Status    string `query:"status"`
		MinPrice  string `query:"min_price"`
		MaxPrice  string `query:"max_price"`
		Sort      string `query:"sort" enum:"created_at,title,price"`
		Direction string `query:"dir" enum:"asc,desc"`
	}) (*struct {
		Body []domain.Property `json:"body"`
	}, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		minPrice, err := optionalFloat("min_price", input.MinPrice)
		if err != nil {
			return nil, handleError(err)
		}
		maxPrice, err := optionalFloat("max_price", input.MaxPrice)
		if err != nil {
			return nil, handleError(err)
		}
		items, err := e.ListProperties(ctx, actor, views.PropertyOptions{
			Search:    input.Search,
			Status:    input.Status,
			MinPrice:  minPrice,
			MaxPrice:  maxPrice,
			SortBy:    input.Sort,
			Direction: input.Direction,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Property `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "property-stats",
		Method:      http.MethodGet,
		Path:        "/properties/stats",
		Summary:     "Listing counts per status",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body views.Stats `json:"body"`
	}, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		st, err := e.PropertyStats(ctx, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body views.Stats `json:"body"`
		}{Body: st}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-property",
		Method:      http.MethodGet,
		Path:        "/properties/{property_id}",
		Summary:     "Get property",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		PropertyID string `path:"property_id"`
	}) (*propertyBody, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.GetProperty(ctx, actor, input.PropertyID)
		if err != nil {
			return nil, handleError(err)
		}
		return &propertyBody{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-property",
		Method:      http.MethodPatch,
		Path:        "/properties/{property_id}",
		Summary:     "Update property",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		PropertyID string                `path:"property_id"`
		Body       UpdatePropertyRequest `json:"body"`
	}) (*propertyBody, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		b := input.Body
		p, err := e.UpdateProperty(ctx, engine.PropertyUpdateOptions{
			ActorID:      actor,
			ID:           input.PropertyID,
			Title:        b.Title,
			Description:  b.Description,
			Address:      b.Address,
			Latitude:     b.Latitude,
			Longitude:    b.Longitude,
			Status:       b.Status,
			PropertyType: b.PropertyType,
			OfferType:    b.OfferType,
			OwnerID:      b.OwnerID,
			ClearOwner:   b.ClearOwner,
			ImageURL:     b.ImageURL,
			Details:      b.Details,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &propertyBody{Body: p}, nil
	})
}

type clientBody struct {
	Body domain.Client `json:"body"`
}

func registerClients(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-client",
		Method:        http.MethodPost,
		Path:          "/clients",
		Summary:       "Create client",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body CreateClientRequest `json:"body"`
	}) (*clientBody, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		b := input.Body
		c, err := e.CreateClient(ctx, engine.ClientCreateOptions{
			ActorID:    actor,
			AdvisorID:  b.AdvisorID,
			Name:       b.Name,
			LastName:   b.LastName,
			NationalID: b.NationalID,
			Phone:      b.Phone,
			Email:      b.Email,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &clientBody{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-clients",
		Method:      http.MethodGet,
		Path:        "/clients",
		Summary:     "Search and sort clients",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Search     string `query:"q"`
		Sort       string `query:"sort" enum:"name,properties"`
		NationalID string `query:"national_id"`
	}) (*struct {
		Body []domain.Client `json:"body"`
	}, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if id := strings.TrimSpace(input.NationalID); id != "" {
			c, err := e.FindClientByNationalID(ctx, actor, id)
			if err != nil {
				return nil, handleError(err)
			}
			return &struct {
				Body []domain.Client `json:"body"`
			}{Body: []domain.Client{c}}, nil
		}
		items, err := e.ListClients(ctx, actor, views.ClientOptions{Search: input.Search, SortBy: input.Sort})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Client `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-client",
		Method:      http.MethodGet,
		Path:        "/clients/{client_id}",
		Summary:     "Get client with owned properties",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ClientID string `path:"client_id"`
	}) (*clientBody, error) {
		actor, authErr := advisorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, err := e.GetClient(ctx, actor, input.ClientID)
		if err != nil {
			return nil, handleError(err)
		}
		return &clientBody{Body: c}, nil
	})
}

func optionalFloat(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, domain.InvalidArgument(field, raw, "expected a number")
	}
	return &v, nil
}
