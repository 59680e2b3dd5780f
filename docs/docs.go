// Package docs holds the generated Swagger specification for the hazard
// daemon, the same swag-generated shape the teacher wires in
// cmd/query/main.go (a blank import registering against swaggo/swag's
// global spec registry, served by swaggo/gin-swagger).
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/pmap": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Compute a ProbabilityMap for a single source",
                "parameters": [
                    {
                        "description": "scenario",
                        "name": "scenario",
                        "in": "body",
                        "required": true,
                        "schema": {"type": "object"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        },
        "/pmap/group": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Compute per-group ProbabilityMaps across many sources",
                "parameters": [
                    {
                        "description": "scenario",
                        "name": "scenario",
                        "in": "body",
                        "required": true,
                        "schema": {"type": "object"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "hazard API",
	Description:      "Computes probabilistic seismic hazard ProbabilityMaps from scenario submissions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
