// Package docs registers the OpenAPI description of the portal's JSON and
// form endpoints with swag.
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
        "/auth/login": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Password sign-in",
                "parameters": [
                    {
                        "description": "Credentials and optional role intent",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.loginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/auth/signup": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Password sign-up",
                "parameters": [
                    {
                        "description": "Credentials and the role to assign",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.signUpRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/auth/federated": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Federated sign-in",
                "parameters": [
                    {
                        "description": "Provider credential or failure reason",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.federatedRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.sessionResponse"}}
                }
            }
        },
        "/auth/callback": {
            "get": {
                "tags": ["auth"],
                "summary": "Federated redirect callback",
                "parameters": [
                    {"type": "string", "description": "Opaque state issued with the redirect", "name": "state", "in": "query"},
                    {"type": "string", "description": "Authorization code", "name": "code", "in": "query"},
                    {"type": "string", "description": "Provider error", "name": "error", "in": "query"}
                ],
                "responses": {
                    "303": {"description": "See Other"}
                }
            }
        },
        "/auth/signout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign out",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.sessionResponse"}}
                }
            }
        },
        "/api/session": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Current session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.readinessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.AuthState": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["initializing", "authenticated", "role_unknown", "unauthenticated", "error"]},
                "identity": {"$ref": "#/definitions/domain.Identity"},
                "role": {"type": "string", "enum": ["student", "instructor"]},
                "message": {"type": "string"},
                "loading": {"type": "boolean"}
            }
        },
        "domain.Identity": {
            "type": "object",
            "properties": {
                "uid": {"type": "string"},
                "email": {"type": "string"},
                "display_name": {"type": "string"},
                "provider": {"type": "string"}
            }
        },
        "handler.dependencyStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "handler.errorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "handler.federatedRequest": {
            "type": "object",
            "properties": {
                "role": {"type": "string", "enum": ["student", "instructor"]},
                "credential": {"type": "string"},
                "failure": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "instructor"]}
            }
        },
        "handler.readinessResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "dependencies": {"type": "object", "additionalProperties": {"$ref": "#/definitions/handler.dependencyStatus"}}
            }
        },
        "handler.sessionResponse": {
            "type": "object",
            "properties": {
                "state": {"$ref": "#/definitions/domain.AuthState"},
                "redirect": {"type": "string"}
            }
        },
        "handler.signUpRequest": {
            "type": "object",
            "required": ["email", "password", "role"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "confirm_password": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "instructor"]}
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
	Title:            "OracadeHub Learning Portal API",
	Description:      "Session, sign-in and health endpoints of the OracadeHub learning portal.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
