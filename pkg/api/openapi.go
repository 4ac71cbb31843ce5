// sentinel
// (C) 2024, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"

	"github.com/caas-team/sentinel/internal/logger"
)

// Doc describes a route in the openapi document
type Doc struct {
	Summary string
	Tags    []string
	// Response is a sample of the response body its schema is generated from.
	// A nil Response documents a plain text body.
	Response any
	// ContentType of the response, defaults to application/json
	ContentType string
	// Status of a successful response, defaults to 200
	Status int
	// QueryParams maps the name of an integer query parameter to its description
	QueryParams map[string]string
	// Errors maps additional response codes to their description
	Errors map[int]string
}

func newDocument() openapi3.T {
	return openapi3.T{
		OpenAPI: "3.0.0",
		Info: &openapi3.Info{
			Title:       "Sentinel Control API",
			Description: "Status, history and on demand cycles of the Sentinel cycle scheduler",
			Version:     "v1",
			Contact: &openapi3.Contact{
				URL:   "https://caas.telekom.de",
				Email: "caas-request@telekom.de",
				Name:  "CaaS Team",
			},
		},
		Paths:      make(openapi3.Paths),
		Extensions: make(map[string]any),
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
		Servers: openapi3.Servers{},
	}
}

// OpenAPI generates the openapi document of the documented routes
func OpenAPI(ctx context.Context, routes ...Route) (openapi3.T, error) {
	log := logger.FromContext(ctx)
	doc := newDocument()

	for _, route := range routes {
		if route.Doc == nil {
			continue
		}
		op, err := operation(route.Doc)
		if err != nil {
			log.Error("Failed to create schema for route", "path", route.Path, "error", err)
			return openapi3.T{}, &ErrCreateOpenapiSchema{name: route.Method + " " + route.Path, err: err}
		}

		item, ok := doc.Paths[route.Path]
		if !ok {
			item = &openapi3.PathItem{}
			doc.Paths[route.Path] = item
		}
		switch route.Method {
		case http.MethodPost:
			item.Post = op
		case http.MethodPut:
			item.Put = op
		case http.MethodDelete:
			item.Delete = op
		case http.MethodPatch:
			item.Patch = op
		default:
			item.Get = op
		}
	}

	return doc, nil
}

func operation(d *Doc) (*openapi3.Operation, error) {
	contentType := d.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	status := d.Status
	if status == 0 {
		status = http.StatusOK
	}

	schema := openapi3.NewStringSchema().NewRef()
	if d.Response != nil {
		ref, err := openapi3gen.NewSchemaRefForValue(d.Response, nil)
		if err != nil {
			return nil, err
		}
		schema = ref
	}

	description := http.StatusText(status)
	op := &openapi3.Operation{
		Summary: d.Summary,
		Tags:    d.Tags,
		Responses: openapi3.Responses{
			fmt.Sprint(status): &openapi3.ResponseRef{
				Value: &openapi3.Response{
					Description: &description,
					Content:     openapi3.NewContentWithSchemaRef(schema, []string{contentType}),
				},
			},
		},
	}

	for code, desc := range d.Errors {
		desc := desc
		op.Responses[fmt.Sprint(code)] = &openapi3.ResponseRef{
			Value: &openapi3.Response{Description: &desc},
		}
	}
	for name, desc := range d.QueryParams {
		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter(name).
				WithDescription(desc).
				WithSchema(openapi3.NewIntegerSchema()),
		})
	}
	sort.Slice(op.Parameters, func(i, j int) bool {
		return op.Parameters[i].Value.Name < op.Parameters[j].Value.Name
	})
	return op, nil
}
