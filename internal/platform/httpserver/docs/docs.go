// Package docs registers the ballotbox OpenAPI document with swag so the
// swagger UI can serve it at /swagger/doc.json.
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
		"/v1/ledgers": {
			"post": {
				"summary": "Deploy a ledger",
				"tags": [
					"ledgers"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/DeployLedgerRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/DeployLedgerResponse"
						}
					},
					"400": {
						"description": "invalid input",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			}
		},
		"/v1/ledgers/{address}": {
			"get": {
				"summary": "Ledger summary",
				"tags": [
					"ledgers"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/LedgerResponse"
						}
					},
					"400": {
						"description": "invalid input",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"404": {
						"description": "not found",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/ledgers/{address}/owner": {
			"get": {
				"summary": "Ledger owner",
				"tags": [
					"ledgers"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/OwnerResponse"
						}
					},
					"400": {
						"description": "invalid input",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"404": {
						"description": "not found",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/ledgers/{address}/candidates": {
			"get": {
				"summary": "List candidates",
				"tags": [
					"candidates"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/CandidatesResponse"
						}
					},
					"400": {
						"description": "invalid input",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"404": {
						"description": "not found",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					}
				}
			},
			"post": {
				"summary": "Register a candidate",
				"tags": [
					"candidates"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "address",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "account address the call is made from",
						"name": "X-Caller-Address",
						"in": "header",
						"required": true
					},
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/AddCandidateRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/AddCandidateResponse"
						}
					},
					"400": {
						"description": "invalid input",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"401": {
						"description": "missing caller",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"403": {
						"description": "caller is not the owner",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"404": {
						"description": "not found",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			}
		},
		"/v1/ledgers/{address}/candidates/{id}": {
			"get": {
				"summary": "Candidate by id",
				"tags": [
					"candidates"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "address",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/CandidateResponse"
						}
					},
					"400": {
						"description": "invalid input",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"404": {
						"description": "not found",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/ledgers/{address}/candidates/{id}/data": {
			"get": {
				"summary": "Candidate with current session tally",
				"tags": [
					"candidates"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "address",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/CandidateDataResponse"
						}
					},
					"400": {
						"description": "invalid input",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"404": {
						"description": "not found",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/ledgers/{address}/candidates-count": {
			"get": {
				"summary": "Number of candidates",
				"tags": [
					"candidates"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/CountResponse"
						}
					},
					"400": {
						"description": "invalid input",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"404": {
						"description": "not found",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/ledgers/{address}/session": {
			"get": {
				"summary": "Current session",
				"tags": [
					"votes"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "address",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/SessionResponse"
						}
					},
					"400": {
						"description": "invalid input",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"404": {
						"description": "not found",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/ledgers/{address}/sessions/{session}/candidates/{id}/votes": {
			"get": {
				"summary": "Tally for a session and candidate",
				"tags": [
					"votes"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "address",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"name": "session",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/VoteCountResponse"
						}
					},
					"400": {
						"description": "invalid input",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"404": {
						"description": "not found",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/ledgers/{address}/votes": {
			"post": {
				"summary": "Cast a vote",
				"tags": [
					"votes"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "address",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "account address the call is made from",
						"name": "X-Caller-Address",
						"in": "header",
						"required": true
					},
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/VoteRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/VoteResponse"
						}
					},
					"400": {
						"description": "invalid input",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"401": {
						"description": "missing caller",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"403": {
						"description": "caller is not the owner",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"404": {
						"description": "not found",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			}
		},
		"/v1/ledgers/{address}/reset": {
			"post": {
				"summary": "Start the next session",
				"tags": [
					"votes"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "address",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "account address the call is made from",
						"name": "X-Caller-Address",
						"in": "header",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/ResetVotesResponse"
						}
					},
					"400": {
						"description": "invalid input",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"401": {
						"description": "missing caller",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"403": {
						"description": "caller is not the owner",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"404": {
						"description": "not found",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/ledgers/{address}/events": {
			"get": {
				"summary": "Ledger event log",
				"tags": [
					"events"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "address",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "return events with a greater sequence",
						"name": "after",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "page size, default 100, max 1000",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/EventsResponse"
						}
					},
					"400": {
						"description": "invalid input",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					},
					"404": {
						"description": "not found",
						"schema": {
							"$ref": "#/definitions/ErrorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"ErrorResponse": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				},
				"message": {
					"type": "string"
				}
			}
		},
		"DeployLedgerRequest": {
			"type": "object",
			"properties": {
				"admin": {
					"type": "string"
				}
			}
		},
		"AddCandidateRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				}
			}
		},
		"VoteRequest": {
			"type": "object",
			"properties": {
				"candidate_id": {
					"type": "integer"
				}
			}
		},
		"LedgerResponse": {
			"type": "object",
			"properties": {
				"address": {
					"type": "string"
				},
				"owner": {
					"type": "string"
				},
				"current_session": {
					"type": "integer"
				},
				"candidates_count": {
					"type": "integer"
				},
				"event_sequence": {
					"type": "integer"
				},
				"created_at": {
					"type": "string",
					"format": "date-time"
				},
				"updated_at": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"DeployLedgerResponse": {
			"type": "object",
			"properties": {
				"ledger": {
					"$ref": "#/definitions/LedgerResponse"
				},
				"candidates": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/CandidateResponse"
					}
				}
			}
		},
		"OwnerResponse": {
			"type": "object",
			"properties": {
				"owner": {
					"type": "string"
				}
			}
		},
		"CandidateResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"name": {
					"type": "string"
				}
			}
		},
		"CandidatesResponse": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/CandidateResponse"
					}
				}
			}
		},
		"CandidateDataResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"name": {
					"type": "string"
				},
				"session": {
					"type": "integer"
				},
				"votes": {
					"type": "integer"
				}
			}
		},
		"CountResponse": {
			"type": "object",
			"properties": {
				"count": {
					"type": "integer"
				}
			}
		},
		"SessionResponse": {
			"type": "object",
			"properties": {
				"session": {
					"type": "integer"
				}
			}
		},
		"VoteCountResponse": {
			"type": "object",
			"properties": {
				"session": {
					"type": "integer"
				},
				"candidate_id": {
					"type": "integer"
				},
				"count": {
					"type": "integer"
				}
			}
		},
		"VoteResponse": {
			"type": "object",
			"properties": {
				"candidate_id": {
					"type": "integer"
				},
				"session": {
					"type": "integer"
				},
				"count": {
					"type": "integer"
				},
				"event": {
					"$ref": "#/definitions/EventResponse"
				}
			}
		},
		"AddCandidateResponse": {
			"type": "object",
			"properties": {
				"candidate": {
					"$ref": "#/definitions/CandidateResponse"
				},
				"event": {
					"$ref": "#/definitions/EventResponse"
				}
			}
		},
		"ResetVotesResponse": {
			"type": "object",
			"properties": {
				"previous_session": {
					"type": "integer"
				},
				"session": {
					"type": "integer"
				},
				"event": {
					"$ref": "#/definitions/EventResponse"
				}
			}
		},
		"EventResponse": {
			"type": "object",
			"properties": {
				"event_id": {
					"type": "string"
				},
				"sequence": {
					"type": "integer"
				},
				"type": {
					"type": "string"
				},
				"occurred_at": {
					"type": "string",
					"format": "date-time"
				},
				"caller": {
					"type": "string"
				},
				"args": {
					"type": "object",
					"additionalProperties": true
				}
			}
		},
		"EventsResponse": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/EventResponse"
					}
				}
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
	Title:            "ballotbox voting ledger API",
	Description:      "Session-scoped voting ledgers: owner-managed candidates, open voting, owner resets.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
