// Package docs holds the OpenAPI description served at /swagger when
// SWAGGER_ENABLED is set. Regenerate it from the handler annotations with
// `swag init -g cmd/server/main.go -o internal/http/docs`.
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
        "/auth/otp/request": {"post": {"tags": ["Auth"], "summary": "Request a one-time code", "operationId": "requestOTP",
            "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.OTPRequest"}}],
            "responses": {"202": {"description": "Accepted"}, "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}, "404": {"description": "Unknown phone on login"}, "409": {"description": "Phone already registered"}, "429": {"description": "Too many requests"}, "502": {"description": "SMS delivery failed"}}}},
        "/auth/otp/verify": {"post": {"tags": ["Auth"], "summary": "Redeem a one-time code", "operationId": "verifyOTP",
            "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.OTPVerifyRequest"}}],
            "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid or expired code"}}}},
        "/auth/token/refresh": {"post": {"tags": ["Auth"], "summary": "Refresh credentials", "operationId": "refreshToken",
            "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/staff/login": {"post": {"tags": ["Auth"], "summary": "Staff password login", "operationId": "staffLogin",
            "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/me": {"get": {"tags": ["Auth"], "summary": "Current principal", "operationId": "me", "security": [{"BearerAuth": []}],
            "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/staff": {"post": {"tags": ["Staff"], "summary": "Create a staff user", "operationId": "createStaff", "security": [{"BearerAuth": []}],
            "responses": {"201": {"description": "Created"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}}},
        "/{section}": {
            "get": {"tags": ["Content"], "summary": "List content items (paginated)", "operationId": "listContent",
                "parameters": [{"$ref": "#/parameters/section"}, {"type": "string", "name": "lang", "in": "query", "enum": ["uz", "ru", "en"]}, {"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "page_size", "in": "query"}],
                "responses": {"200": {"description": "OK", "headers": {"ETag": {"type": "string"}}}, "304": {"description": "Not Modified"}}},
            "post": {"tags": ["Content"], "summary": "Publish a content item", "operationId": "createContent", "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/section"}],
                "responses": {"201": {"description": "Created"}, "403": {"description": "Forbidden"}}}},
        "/{section}/{id}": {
            "get": {"tags": ["Content"], "summary": "Read a content item", "operationId": "getContent",
                "parameters": [{"$ref": "#/parameters/section"}, {"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {"tags": ["Content"], "summary": "Update a content item", "operationId": "updateContent", "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/section"}, {"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Content"], "summary": "Delete a content item", "operationId": "deleteContent", "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/section"}, {"$ref": "#/parameters/id"}], "responses": {"204": {"description": "No Content"}}}},
        "/{section}/{id}/like": {
            "post": {"tags": ["Engagement"], "summary": "Like or unlike an item", "operationId": "toggleLike", "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/section"}, {"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}},
            "get": {"tags": ["Engagement"], "summary": "Like count of an item", "operationId": "likeStatus",
                "parameters": [{"$ref": "#/parameters/section"}, {"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}}},
        "/{section}/{id}/view": {"post": {"tags": ["Engagement"], "summary": "Record a view", "operationId": "recordView",
            "parameters": [{"$ref": "#/parameters/section"}, {"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}}},
        "/{section}/{id}/comments": {
            "get": {"tags": ["Comments"], "summary": "List comments (paginated)", "operationId": "listComments",
                "parameters": [{"$ref": "#/parameters/section"}, {"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Comments"], "summary": "Comment on an item", "operationId": "postComment", "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/section"}, {"$ref": "#/parameters/id"}], "responses": {"201": {"description": "Created"}}}},
        "/lost-items": {
            "post": {"tags": ["LostItems"], "summary": "Report a lost item", "operationId": "submitLostItem", "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/idempotencyKey"}], "responses": {"201": {"description": "Created"}, "200": {"description": "Replayed"}, "409": {"description": "Previous request still pending"}}},
            "get": {"tags": ["LostItems"], "summary": "List lost-item reports (support)", "operationId": "listLostItems", "security": [{"BearerAuth": []}],
                "parameters": [{"type": "string", "name": "q", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/lost-items/mine": {"get": {"tags": ["LostItems"], "summary": "My lost-item reports", "operationId": "listMyLostItems", "security": [{"BearerAuth": []}],
            "responses": {"200": {"description": "OK"}}}},
        "/lost-items/{id}/status": {"patch": {"tags": ["LostItems"], "summary": "Answer or reject a lost-item report", "operationId": "setLostItemStatus", "security": [{"BearerAuth": []}],
            "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}}},
        "/vacancies": {
            "get": {"tags": ["Vacancies"], "summary": "List vacancies (paginated)", "operationId": "listVacancies", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Vacancies"], "summary": "Publish a vacancy", "operationId": "createVacancy", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}},
        "/vacancies/{id}": {
            "get": {"tags": ["Vacancies"], "summary": "Read a vacancy", "operationId": "getVacancy", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Vacancies"], "summary": "Replace a vacancy", "operationId": "updateVacancy", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Vacancies"], "summary": "Delete a vacancy", "operationId": "deleteVacancy", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/id"}], "responses": {"204": {"description": "No Content"}}}},
        "/vacancies/{id}/applications": {
            "post": {"tags": ["Vacancies"], "summary": "Apply for a vacancy", "operationId": "applyVacancy", "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/id"}, {"$ref": "#/parameters/idempotencyKey"}], "responses": {"201": {"description": "Created"}, "200": {"description": "Replayed"}, "409": {"description": "Pending application exists"}}},
            "get": {"tags": ["Vacancies"], "summary": "Applications for a vacancy (HR)", "operationId": "listApplications", "security": [{"BearerAuth": []}],
                "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}}},
        "/applications/{id}/status": {"patch": {"tags": ["Vacancies"], "summary": "Review an application (HR)", "operationId": "setApplicationStatus", "security": [{"BearerAuth": []}],
            "parameters": [{"$ref": "#/parameters/id"}], "responses": {"204": {"description": "No Content"}}}},
        "/statistics/stations": {
            "get": {"tags": ["Statistics"], "summary": "Station passenger statistics", "operationId": "listStations",
                "parameters": [{"type": "integer", "name": "year", "in": "query"}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Statistics"], "summary": "Set a station's monthly passenger count", "operationId": "upsertStation", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/statistics/visitors": {"get": {"tags": ["Statistics"], "summary": "Distinct site visitors", "operationId": "visitors", "responses": {"200": {"description": "OK"}}}}
    },
    "parameters": {
        "section": {"type": "string", "name": "section", "in": "path", "required": true, "enum": ["news", "announcements", "corruption-reports"]},
        "id": {"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true},
        "idempotencyKey": {"type": "string", "name": "Idempotency-Key", "in": "header"}
    },
    "definitions": {
        "handlers.ErrorResponse": {"type": "object", "properties": {
            "request_id": {"type": "string"}, "code": {"type": "string", "example": "not_found"}, "message": {"type": "string"}}},
        "handlers.OTPRequest": {"type": "object", "required": ["phone", "action"], "properties": {
            "phone": {"type": "string", "example": "+998901234567"}, "action": {"type": "string", "enum": ["register", "login"]},
            "first_name": {"type": "string"}, "last_name": {"type": "string"}}},
        "handlers.OTPVerifyRequest": {"type": "object", "required": ["code"], "properties": {
            "code": {"type": "string", "example": "042917"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Metro site API",
	Description:      "Content, engagement, OTP login and request handling for the metro website.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
