package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Treasury API",
        "description": "Treasury dashboard backend: profiles, permissions, cash flow entries, imports, forecasts and reporting",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh and the caller's resolved permissions"},
        {"name": "Users", "description": "User administration"},
        {"name": "Profiles", "description": "Permission profiles and their grants"},
        {"name": "Audit", "description": "Audit trail"},
        {"name": "Reference", "description": "Treasury plan reference data and settings"},
        {"name": "Entries", "description": "Cash flow entries"},
        {"name": "Imports", "description": "Asynchronous bulk imports"},
        {"name": "Forecasts", "description": "Forecast scenarios"},
        {"name": "Dashboard", "description": "Dashboard metrics"},
        {"name": "Reports", "description": "Month by category reporting"},
        {"name": "System", "description": "Probes and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {"tags": ["System"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {
                "tags": ["System"],
                "summary": "Readiness probe",
                "responses": {"200": {"description": "Ready"}, "503": {"description": "A dependency is degraded"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Exchange credentials for tokens",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Inactive account", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Too many attempts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me/permissions": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Resolved permissions of the current user",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/PermissionSummary"}}}
            }
        },
        "/profiles": {
            "get": {
                "tags": ["Profiles"],
                "summary": "List profiles",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Profiles"],
                "summary": "Create a profile without grants",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Name already used", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/profiles/{id}/permissions": {
            "put": {
                "tags": ["Profiles"],
                "summary": "Grant or revoke one action",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SetPermissionRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Profile"}}}
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Treasury dashboard summary",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "plan_id", "type": "string"},
                    {"in": "query", "name": "from", "type": "string", "format": "date"},
                    {"in": "query", "name": "to", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "Month by category report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "plan_id", "type": "string"},
                    {"in": "query", "name": "from", "type": "string", "format": "date", "required": true},
                    {"in": "query", "name": "to", "type": "string", "format": "date", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "Permission": {
            "type": "object",
            "properties": {
                "resource": {"type": "string", "enum": ["dashboard", "plan", "saisie", "imports", "forecast", "visualization", "reporting", "users", "profiles", "settings"]},
                "actions": {"type": "array", "items": {"type": "string", "enum": ["view", "create", "edit", "delete", "export"]}}
            }
        },
        "Profile": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "is_default": {"type": "boolean"},
                "version": {"type": "integer"},
                "permissions": {"type": "array", "items": {"$ref": "#/definitions/Permission"}},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "SetPermissionRequest": {
            "type": "object",
            "required": ["resource", "action", "granted"],
            "properties": {
                "resource": {"type": "string"},
                "action": {"type": "string"},
                "granted": {"type": "boolean"}
            }
        },
        "NavItem": {
            "type": "object",
            "properties": {
                "resource": {"type": "string"},
                "label": {"type": "string"},
                "path": {"type": "string"}
            }
        },
        "PermissionSummary": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "profile_id": {"type": "string"},
                "profile_name": {"type": "string"},
                "profile_version": {"type": "integer"},
                "resolved": {"type": "boolean"},
                "permissions": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}},
                "resources": {"type": "array", "items": {"type": "string"}},
                "is_admin": {"type": "boolean"},
                "navigation": {"type": "array", "items": {"$ref": "#/definitions/NavItem"}}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
