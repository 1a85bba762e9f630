// Package swagger holds the OpenAPI document of the report API.
package swagger

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
        "/api/analyze-document": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["report"],
                "summary": "Analyze a PDF document",
                "parameters": [
                    {
                        "description": "base64 or data URL encoded PDF",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.AnalyzeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.AnalyzeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/api/generate-report": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["report"],
                "summary": "Generate a topic report as DOCX",
                "parameters": [
                    {
                        "description": "topic and reference PDF",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.GenerateRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.GenerateResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/api/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["report"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.HealthResponse"}}
                }
            }
        },
        "/api/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["report"],
                "summary": "Collection, cache and workflow statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/biz.Stats"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/api/carbon/chat": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["carbon"],
                "summary": "Ask a question about the emission datasets",
                "parameters": [
                    {
                        "description": "question",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.ChatRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ChatResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/api/carbon/datasets": {
            "get": {
                "produces": ["application/json"],
                "tags": ["carbon"],
                "summary": "List the loaded datasets",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.DatasetsResponse"}}
                }
            }
        }
    },
    "definitions": {
        "biz.DatasetSummary": {
            "type": "object",
            "properties": {
                "columns": {"type": "array", "items": {"type": "string"}},
                "description": {"type": "string"},
                "name": {"type": "string"},
                "rows": {"type": "integer"}
            }
        },
        "biz.Stats": {
            "type": "object",
            "properties": {
                "cache": {"type": "object"},
                "chat_provider": {"type": "string"},
                "chunk_count": {"type": "integer"},
                "collection": {"type": "string"},
                "configured": {"type": "boolean"},
                "embed_provider": {"type": "string"},
                "metrics": {"type": "object"},
                "reason": {"type": "string"}
            }
        },
        "handler.AnalyzeRequest": {
            "type": "object",
            "required": ["pdf_data"],
            "properties": {
                "pdf_data": {"type": "string"}
            }
        },
        "handler.AnalyzeResponse": {
            "type": "object",
            "properties": {
                "structure": {"type": "string"},
                "success": {"type": "boolean"},
                "text_length": {"type": "integer"},
                "toc": {"type": "string"}
            }
        },
        "handler.ChatRequest": {
            "type": "object",
            "required": ["question"],
            "properties": {
                "question": {"type": "string"}
            }
        },
        "handler.ChatResponse": {
            "type": "object",
            "properties": {
                "answer": {"type": "string"},
                "chart_png": {"type": "string"},
                "chart_type": {"type": "string"},
                "intent": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "handler.DatasetsResponse": {
            "type": "object",
            "properties": {
                "datasets": {"type": "array", "items": {"$ref": "#/definitions/biz.DatasetSummary"}},
                "success": {"type": "boolean"}
            }
        },
        "handler.GenerateRequest": {
            "type": "object",
            "required": ["pdf_data", "topic"],
            "properties": {
                "pdf_data": {"type": "string"},
                "topic": {"type": "string"}
            }
        },
        "handler.GenerateResponse": {
            "type": "object",
            "properties": {
                "docx_data": {"type": "string"},
                "report": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "handler.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "response.ErrorBody": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Sentinel Report API",
	Description:      "PDF analysis, report generation and carbon data chat.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
