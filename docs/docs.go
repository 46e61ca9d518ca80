// Package docs registers the OpenAPI description served at /swagger/.
// Regenerate with `swag init -g cmd/angelia-service/main.go` after
// changing handler annotations.
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
        "/feed": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Get the feed",
                "parameters": [
                    {"type": "string", "description": "Only posts of this channel", "name": "channel", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/posts": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Create a post",
                "parameters": [
                    {"type": "string", "description": "Channel ID", "name": "channelId", "in": "formData", "required": true},
                    {"type": "string", "description": "Post text", "name": "text", "in": "formData"},
                    {"type": "boolean", "description": "Notify subscribers", "name": "isHighPriority", "in": "formData"},
                    {"type": "file", "description": "Attachments", "name": "media", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/posts/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Get a post",
                "parameters": [{"type": "string", "description": "Post ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Delete a post",
                "parameters": [{"type": "string", "description": "Post ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Not the author", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/channels": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["channels"],
                "summary": "List channels",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["channels"],
                "summary": "Create a channel",
                "parameters": [{"description": "Channel", "name": "channel", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.CreateChannelRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Channel limit reached", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/invite/{code}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["invites"],
                "summary": "Preview an invite link",
                "parameters": [{"type": "string", "description": "Invite code", "name": "code", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get the current user",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/demo": {
            "get": {
                "produces": ["application/json"],
                "tags": ["demo"],
                "summary": "Get demo mode",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        }
    },
    "definitions": {
        "response.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"},
                "code": {"type": "string"},
                "data": {},
                "message": {"type": "string"}
            }
        },
        "types.CreateChannelRequest": {
            "type": "object",
            "required": ["color", "name"],
            "properties": {
                "name": {"type": "string", "maxLength": 40},
                "description": {"type": "string", "maxLength": 280},
                "color": {"type": "string", "enum": ["slate", "red", "orange", "amber", "green", "teal", "blue", "indigo", "violet", "pink"]}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Angelia API",
	Description:      "Family feed sync gateway: channels, posts, invites and live updates.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
