// Package docs holds the OpenAPI description served at /swagger when
// SWAGGER_ENABLED is set. Regenerate with `swag init -g cmd/server/main.go`.
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
        "/excursions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Excursions"],
                "summary": "List excursions",
                "operationId": "listExcursions",
                "parameters": [
                    {"type": "integer", "description": "Page (1-based)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (max 100)", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ExcursionListResponse"}},
                    "304": {"description": "Not Modified"},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/excursion": {
            "post": {
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Excursions"],
                "summary": "Create an excursion",
                "operationId": "createExcursion",
                "parameters": [
                    {"description": "Excursion", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ExcursionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Excursion"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/excursion/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Excursions"],
                "summary": "Get an excursion",
                "operationId": "getExcursion",
                "parameters": [{"type": "integer", "description": "Excursion ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Excursion"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "patch": {
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Excursions"],
                "summary": "Update an excursion",
                "operationId": "updateExcursion",
                "parameters": [
                    {"type": "integer", "description": "Excursion ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ExcursionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Excursion"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["Excursions"],
                "summary": "Delete an excursion",
                "operationId": "deleteExcursion",
                "parameters": [{"type": "integer", "description": "Excursion ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/excursion/{id}/key": {
            "patch": {
                "produces": ["application/json"],
                "tags": ["Excursions"],
                "summary": "Generate a new excursion key",
                "operationId": "generateKey",
                "parameters": [{"type": "integer", "description": "Excursion ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Key space exhausted", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/categories": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Categories"],
                "summary": "List categories",
                "operationId": "listCategories",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Category"}}},
                    "304": {"description": "Not Modified"}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Categories"],
                "summary": "Search categories",
                "operationId": "searchCategories",
                "parameters": [{"description": "Query", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CategorySearchRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Category"}}}
                }
            }
        },
        "/category": {
            "post": {
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Categories"],
                "summary": "Create a category",
                "operationId": "createCategory",
                "parameters": [{"description": "Category", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CategoryRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Category"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/category/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Categories"],
                "summary": "Get a category",
                "operationId": "getCategory",
                "parameters": [{"type": "integer", "description": "Category ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Category"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "patch": {
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Categories"],
                "summary": "Update a category",
                "operationId": "updateCategory",
                "parameters": [
                    {"type": "integer", "description": "Category ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CategoryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Category"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["Categories"],
                "summary": "Delete a category",
                "operationId": "deleteCategory",
                "parameters": [{"type": "integer", "description": "Category ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}}
                }
            }
        },
        "/sign_in": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Staff sign in",
                "operationId": "signIn",
                "parameters": [{"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CredentialsRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sign_out": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Staff sign out",
                "operationId": "signOut",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}}}
            }
        },
        "/check_auth": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Check the staff session",
                "operationId": "checkAuth",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.AuthStatusResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sign_up": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Create a staff account",
                "operationId": "signUp",
                "parameters": [{"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CredentialsRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.User"}},
                    "409": {"description": "Login taken", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/feedback": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Feedback"],
                "summary": "Send feedback",
                "operationId": "sendFeedback",
                "parameters": [{"description": "Message", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.FeedbackRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "502": {"description": "Relay failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/payment": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Payments"],
                "summary": "Create a payment",
                "operationId": "createPayment",
                "parameters": [
                    {"type": "string", "description": "Client retry key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Payment request", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.PaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.PaymentResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Idempotency key reused", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Payment service unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/payment/{paymentId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Payments"],
                "summary": "Get payment status",
                "operationId": "getPaymentStatus",
                "parameters": [{"type": "string", "description": "Gateway payment id", "name": "paymentId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.PaymentStatusResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Category": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "imgSrc": {"type": "string"}
            }
        },
        "domain.Excursion": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "city": {"type": "string"},
                "info": {"type": "string"},
                "imgSrc": {"type": "string"},
                "personsAmount": {"type": "integer"},
                "accompanistsAmount": {"type": "integer"},
                "price": {"type": "number"},
                "categoryId": {"type": "integer"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"},
                "excursionEvents": {"type": "array", "items": {"$ref": "#/definitions/domain.ExcursionEvent"}}
            }
        },
        "domain.ExcursionEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "time": {"type": "string", "example": "09:30"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "login": {"type": "string"}
            }
        },
        "handlers.AuthStatusResponse": {
            "type": "object",
            "properties": {
                "isAuth": {"type": "boolean"},
                "login": {"type": "string"}
            }
        },
        "handlers.CategoryRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "imgSrc": {"type": "string"}
            }
        },
        "handlers.CategorySearchRequest": {
            "type": "object",
            "properties": {"search": {"type": "string"}}
        },
        "handlers.CredentialsRequest": {
            "type": "object",
            "properties": {
                "login": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "code": {"type": "string"},
                "error": {"type": "string"},
                "errorRu": {"type": "string"}
            }
        },
        "handlers.ExcursionListResponse": {
            "type": "object",
            "properties": {
                "excursions": {"type": "array", "items": {"$ref": "#/definitions/domain.Excursion"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.ExcursionRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "city": {"type": "string"},
                "info": {"type": "string"},
                "imgSrc": {"type": "string"},
                "personsAmount": {"type": "integer"},
                "accompanistsAmount": {"type": "integer"},
                "price": {"type": "number"},
                "categoryId": {"type": "integer"},
                "excursionEvents": {"type": "array", "items": {"$ref": "#/definitions/services.EventInput"}}
            }
        },
        "handlers.FeedbackRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "phone": {"type": "string"},
                "comment": {"type": "string"}
            }
        },
        "handlers.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "handlers.PaymentRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "string", "example": "1500.00"},
                "phone": {"type": "string"},
                "excursionId": {"type": "integer"},
                "excursionKey": {"type": "string"}
            }
        },
        "handlers.PaymentResponse": {
            "type": "object",
            "properties": {"confirmationUrl": {"type": "string"}}
        },
        "handlers.PaymentStatusResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["pending", "paid", "failed"]},
                "paid": {"type": "boolean"}
            }
        },
        "services.EventInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "time": {"type": "string", "example": "09:30"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Excursion Booking API",
	Description:      "Catalog, staff auth, feedback relay and YooKassa payments for an excursion storefront.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
