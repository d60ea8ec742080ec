package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Transfer Review API",
        "description": "Appeal eligibility review workflow for exception transfer requests",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Reviewer login and session management"},
        {"name": "Review", "description": "Appeal review queue and verdicts"},
        {"name": "Reasons", "description": "Transfer reason catalog"},
        {"name": "Documents", "description": "Signed document downloads"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate reviewer",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Tokens issued", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "Tokens rotated", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Expired or revoked token", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke refresh token",
                "responses": {
                    "200": {"description": "Logged out", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/auth/password": {
            "put": {
                "tags": ["Authentication"],
                "summary": "Change own password",
                "responses": {
                    "200": {"description": "Password changed", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current reviewer profile",
                "responses": {
                    "200": {"description": "Profile", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/reasons": {
            "get": {
                "tags": ["Reasons"],
                "summary": "List active transfer reasons",
                "responses": {
                    "200": {"description": "Catalog entries", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/appeals": {
            "get": {
                "tags": ["Review"],
                "summary": "List the review queue",
                "description": "Appeals awaiting review inside the caller's geographic scope, newest first.",
                "responses": {
                    "200": {"description": "Queue listing", "schema": {"$ref": "#/definitions/QueueResponse"}},
                    "403": {"description": "Not an expert role or scope unresolved", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/appeals/{id}": {
            "get": {
                "tags": ["Review"],
                "summary": "Appeal detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Appeal with documents, messages, and trails", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Unknown appeal", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/appeals/review": {
            "post": {
                "tags": ["Review"],
                "summary": "Record per-reason review verdicts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "Reviews recorded", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Missing requestId or reviews", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Appeal outside reviewer scope", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Unknown appeal", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/appeals/decision": {
            "post": {
                "tags": ["Review"],
                "summary": "Record the final eligibility decision",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Decision recorded", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Action must be approve or reject", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Appeal outside reviewer scope", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Unknown appeal", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/appeals/export": {
            "get": {
                "tags": ["Review"],
                "summary": "Export the review queue",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "produces": ["application/octet-stream"],
                "responses": {
                    "200": {"description": "Rendered export"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/appeals/documents/{token}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download an appeal document",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "produces": ["application/octet-stream"],
                "responses": {
                    "200": {"description": "Document stream"},
                    "401": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Document missing", "schema": {"$ref": "#/definitions/Envelope"}}
                }
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
        "RefreshRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "ApplyReviewRequest": {
            "type": "object",
            "required": ["requestId", "reviews"],
            "properties": {
                "requestId": {"type": "string"},
                "reviews": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "reasonId": {"type": "string"},
                            "status": {"type": "string", "enum": ["approved", "rejected"]},
                            "comment": {"type": "string"}
                        }
                    }
                }
            }
        },
        "DecisionRequest": {
            "type": "object",
            "required": ["requestId", "action"],
            "properties": {
                "requestId": {"type": "string"},
                "action": {"type": "string", "enum": ["approve", "reject"]},
                "comment": {"type": "string"}
            }
        },
        "QueueResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "requests": {"type": "array", "items": {"type": "object"}},
                "userRole": {"type": "string"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"type": "object"},
                "error": {"type": "string"}
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
