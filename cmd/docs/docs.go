// Package docs holds the swagger specification served in non-production
// environments.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type \"Bearer\" followed by a space and JWT token."
        }
    },
    "paths": {
        "/auth/google/exchange-code": {
            "post": {
                "tags": ["auth"],
                "summary": "Exchange a Google authorization code for an application token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid request body"},
                    "401": {"description": "Code rejected by Google"}
                }
            }
        },
        "/connection/authorize": {
            "get": {
                "tags": ["connection"],
                "summary": "Get the provider consent URL",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/connection/complete": {
            "post": {
                "tags": ["connection"],
                "summary": "Complete the provider authorization",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "responses": {
                    "204": {"description": "Connection established"},
                    "400": {"description": "Invalid request body"},
                    "502": {"description": "Provider rejected the exchange"}
                }
            }
        },
        "/connection/status": {
            "get": {
                "tags": ["connection"],
                "summary": "Get the provider connection status",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/connection": {
            "delete": {
                "tags": ["connection"],
                "summary": "Disconnect the accounting provider",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Disconnected"}}
            }
        },
        "/dashboard/metrics": {
            "get": {
                "tags": ["dashboard"],
                "summary": "Get dashboard metrics",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [{"name": "period", "in": "query", "type": "string", "default": "ytd"}],
                "responses": {
                    "200": {"description": "OK"},
                    "502": {"description": "Provider unavailable"}
                }
            }
        },
        "/dashboard/expense-categories": {
            "get": {
                "tags": ["dashboard"],
                "summary": "Get expenses by category",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [{"name": "period", "in": "query", "type": "string", "default": "ytd"}],
                "responses": {
                    "200": {"description": "OK"},
                    "502": {"description": "Provider unavailable"}
                }
            }
        },
        "/snapshots/sync": {
            "post": {
                "tags": ["snapshots"],
                "summary": "Sync monthly snapshots for a year",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid request body"},
                    "502": {"description": "Provider unavailable"}
                }
            }
        },
        "/snapshots/embeddings/backfill": {
            "post": {
                "tags": ["snapshots"],
                "summary": "Backfill snapshot embeddings",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [{"name": "limit", "in": "query", "type": "integer", "default": 50}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/query/ask": {
            "post": {
                "tags": ["query"],
                "summary": "Answer a financial question",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "429": {"description": "Rate limit exceeded"},
                    "502": {"description": "Model unavailable"}
                }
            }
        },
        "/query/stream": {
            "post": {
                "tags": ["query"],
                "summary": "Answer a financial question as a server-sent event stream",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["text/event-stream"],
                "responses": {
                    "200": {"description": "SSE stream of token, error and done events"},
                    "429": {"description": "Rate limit exceeded"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "FinLens Backend API",
	Description:      "Bookkeeping dashboard backend: financial aggregation and natural-language queries over a linked accounting provider.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
