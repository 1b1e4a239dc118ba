// Package docs holds the OpenAPI document served under /swagger/. It is
// built from the handlers' swag annotations; regenerate it with swag init
// after changing them.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {
			"name": "API Support"
		},
		"license": {
			"name": "MIT",
			"url": "https://opensource.org/licenses/MIT"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/": {
			"get": {
				"summary": "Service information",
				"tags": [
					"Health"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "health.RootInfo"
						}
					}
				}
			}
		},
		"/api/v1/admin/cache/flush": {
			"post": {
				"summary": "Flush the cache",
				"tags": [
					"Admin"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "map[string]bool"
						}
					}
				}
			}
		},
		"/api/v1/admin/cache/{pattern}": {
			"delete": {
				"summary": "Delete cache keys by pattern",
				"tags": [
					"Admin"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Glob pattern, e.g. ai_response:*",
						"name": "pattern",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "map[string]int64"
						}
					}
				}
			}
		},
		"/api/v1/admin/jobs/{name}/run": {
			"post": {
				"summary": "Run a background job now",
				"tags": [
					"Admin"
				],
				"parameters": [
					{
						"type": "string",
						"description": "session_cleanup, activity_purge or rate_refresh",
						"name": "name",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "Job finished"
					},
					"404": {
						"description": "Unknown job",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/admin/knowledge": {
			"post": {
				"summary": "Add a knowledge document",
				"description": "Chunks the text and adds it to the retrieval store, replacing a document with the same id.",
				"tags": [
					"Admin"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Document",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "admin.DocumentRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "map[string]int"
						}
					}
				}
			}
		},
		"/api/v1/admin/stats": {
			"get": {
				"summary": "Service statistics",
				"tags": [
					"Admin"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "admin.StatsResponse"
						}
					},
					"401": {
						"description": "Missing key",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					},
					"403": {
						"description": "Invalid key",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/auth/login": {
			"post": {
				"summary": "User Login",
				"description": "Logs in with email, phone or username and returns a token pair.",
				"tags": [
					"Auth"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "User login credentials",
						"name": "loginBody",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "auth.LoginRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "Login successful",
						"schema": {
							"type": "object",
							"title": "auth.LoginResponse"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					},
					"401": {
						"description": "Invalid credentials or locked account",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/auth/logout": {
			"post": {
				"summary": "Logout",
				"description": "Ends the session the access token belongs to, or the one named by session_id.",
				"tags": [
					"Auth"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Session to end",
						"name": "session_id",
						"in": "query"
					}
				],
				"responses": {
					"204": {
						"description": "Logged out"
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					},
					"404": {
						"description": "Session not found",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/auth/password-strength": {
			"post": {
				"summary": "Check Password Strength",
				"tags": [
					"Auth"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Password to score",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "auth.PasswordStrengthRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "security.PasswordStrength"
						}
					}
				}
			}
		},
		"/api/v1/auth/refresh": {
			"post": {
				"summary": "Refresh Access Token",
				"description": "Exchanges a refresh token for a new pair. The old refresh token is revoked.",
				"tags": [
					"Auth"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Refresh token",
						"name": "refreshBody",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "auth.RefreshTokenRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "Tokens refreshed",
						"schema": {
							"type": "object",
							"title": "security.TokenPair"
						}
					},
					"400": {
						"description": "Missing refresh token",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					},
					"401": {
						"description": "Invalid or expired refresh token",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/auth/register": {
			"post": {
				"summary": "User Registration",
				"description": "Registers a new user. The password must pass every strength check.",
				"tags": [
					"Auth"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "User registration details",
						"name": "registerBody",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "auth.RegisterRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "User created successfully",
						"schema": {
							"type": "object",
							"title": "auth.AccountResponse"
						}
					},
					"400": {
						"description": "Invalid input or weak password",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					},
					"409": {
						"description": "Email, phone or username already exists",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/auth/sessions": {
			"get": {
				"summary": "List Active Sessions",
				"tags": [
					"Auth"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"type": "object",
								"title": "auth.UserSession"
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/chat": {
			"post": {
				"summary": "Chat with the assistant",
				"description": "Answers a finance question in the user's language with disclaimers and sources.",
				"tags": [
					"Chat"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Message",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "advisor.ChatRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "advisor.ChatResponse"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/chat/fact-check": {
			"post": {
				"summary": "Fact-check a response",
				"tags": [
					"Chat"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Response and the query behind it",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "advisor.FactCheckRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "advisor.FactCheckResult"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/chat/greeting": {
			"get": {
				"summary": "Greeting",
				"tags": [
					"Chat"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "student, professional, farmer or senior_citizen",
						"name": "user_type",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Language code; negotiated from Accept-Language when empty",
						"name": "lang",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "advisor.GreetingResponse"
						}
					}
				}
			}
		},
		"/api/v1/chat/search": {
			"post": {
				"summary": "Search guidelines",
				"tags": [
					"Chat"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Query",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "advisor.SearchRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "advisor.SearchResponse"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/community/discussions": {
			"get": {
				"summary": "List discussions",
				"tags": [
					"Community"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "investment, personal_finance, farmer_finance, tax_planning or credit",
						"name": "category",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page, from 1",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size, 1 to 100",
						"name": "per_page",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "community.DiscussionPage"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			},
			"post": {
				"summary": "Start a discussion",
				"tags": [
					"Community"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Discussion",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "community.CreateDiscussionRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "community.Discussion"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/community/discussions/{id}": {
			"get": {
				"summary": "Get a discussion with its replies",
				"tags": [
					"Community"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Discussion id",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "community.Thread"
						}
					},
					"404": {
						"description": "Discussion not found",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"summary": "Delete a discussion",
				"tags": [
					"Community"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Discussion id",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "Deleted"
					},
					"403": {
						"description": "Not the author",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					},
					"404": {
						"description": "Discussion not found",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/community/discussions/{id}/like": {
			"post": {
				"summary": "Like or unlike a discussion",
				"tags": [
					"Community"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Discussion id",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "community.LikeResult"
						}
					},
					"404": {
						"description": "Discussion not found",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/community/discussions/{id}/replies": {
			"post": {
				"summary": "Reply to a discussion",
				"tags": [
					"Community"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Discussion id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Reply",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "community.ReplyRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "community.Reply"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					},
					"404": {
						"description": "Discussion not found",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/community/stats": {
			"get": {
				"summary": "Community statistics",
				"tags": [
					"Community"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "community.Stats"
						}
					}
				}
			}
		},
		"/api/v1/community/trending": {
			"get": {
				"summary": "Trending discussions",
				"tags": [
					"Community"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "day, week, month, year or all",
						"name": "timespan",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "1 to 50",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"type": "object",
								"title": "community.Discussion"
							}
						}
					}
				}
			}
		},
		"/api/v1/farmer/crop-loan": {
			"post": {
				"summary": "Crop Loan Quote",
				"tags": [
					"Farmer"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Loan details",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "farmer.CropLoanRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "farmer.CropLoanQuote"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/farmer/insurance-premium": {
			"post": {
				"summary": "Crop Insurance Premium",
				"tags": [
					"Farmer"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Season and sum insured",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "farmer.PremiumRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "farmer.PremiumQuote"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/farmer/market-prices": {
			"get": {
				"summary": "Market Prices",
				"tags": [
					"Farmer"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Crop name; all crops when empty",
						"name": "crop",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"type": "object",
								"title": "farmer.MarketPrice"
							}
						}
					},
					"404": {
						"description": "Unknown crop",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/farmer/msp": {
			"get": {
				"summary": "Minimum Support Prices",
				"tags": [
					"Farmer"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"type": "object",
								"title": "farmer.MSP"
							}
						}
					}
				}
			}
		},
		"/api/v1/farmer/msp/{crop}": {
			"get": {
				"summary": "Crop MSP",
				"description": "Returns the MSP of a crop. With a quintals query parameter it also estimates income.",
				"tags": [
					"Farmer"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Crop name",
						"name": "crop",
						"in": "path",
						"required": true
					},
					{
						"type": "number",
						"description": "Harvest size",
						"name": "quintals",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "farmer.MSP"
						}
					},
					"404": {
						"description": "Unknown crop",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/farmer/schemes": {
			"get": {
				"summary": "Government Schemes",
				"tags": [
					"Farmer"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"type": "object",
								"title": "farmer.Scheme"
							}
						}
					}
				}
			}
		},
		"/api/v1/farmer/weather": {
			"get": {
				"summary": "Weather Alerts",
				"description": "Weather alerts with their financial impact. Demo data is returned when no weather key is configured.",
				"tags": [
					"Farmer"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Region or city",
						"name": "region",
						"in": "query",
						"default": "India"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "farmer.WeatherReport"
						}
					}
				}
			}
		},
		"/api/v1/financial/alerts": {
			"post": {
				"summary": "Smart Alerts",
				"description": "Generates spending alerts. For a signed-in caller, critical and warning alerts are also pushed to their notification stream.",
				"tags": [
					"Financial"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Transactions and profile",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "finance.BudgetRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "finance.AlertsResponse"
						}
					}
				}
			}
		},
		"/api/v1/financial/budget/503020": {
			"get": {
				"summary": "50/30/20 Budget Split",
				"tags": [
					"Financial"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "number",
						"description": "Monthly income",
						"name": "income",
						"in": "query",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "finance.BudgetSplit"
						}
					},
					"400": {
						"description": "Invalid income",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/financial/budget/analyze": {
			"post": {
				"summary": "Budget Analysis",
				"description": "Summary, categories, trend, insights and a health score for the last 90 days.",
				"tags": [
					"Financial"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Transactions and profile",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "finance.BudgetRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "finance.BudgetAnalysis"
						}
					}
				}
			}
		},
		"/api/v1/financial/budget/report": {
			"post": {
				"summary": "Budget Report PDF",
				"description": "Runs the budget analysis and returns it as a printable PDF.",
				"tags": [
					"Financial"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/pdf"
				],
				"parameters": [
					{
						"description": "Transactions, profile and the name to print",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "finance.ReportRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "file"
						}
					},
					"400": {
						"description": "Invalid request",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/financial/credit-score": {
			"post": {
				"summary": "Credit Score",
				"description": "Looks the score up with the configured bureaus, or returns a demo score.",
				"tags": [
					"Financial"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "PAN",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "finance.CreditScoreRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "finance.CreditReport"
						}
					},
					"400": {
						"description": "Invalid PAN",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/financial/currency/convert": {
			"get": {
				"summary": "Convert Currency",
				"description": "Converts an amount using live rates, falling back to built-in rates when every provider fails.",
				"tags": [
					"Currency"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "number",
						"description": "Amount to convert",
						"name": "amount",
						"in": "query",
						"required": true
					},
					{
						"type": "string",
						"description": "Source currency",
						"name": "from",
						"in": "query",
						"default": "USD"
					},
					{
						"type": "string",
						"description": "Target currency",
						"name": "to",
						"in": "query",
						"default": "INR"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "currency.Conversion"
						}
					},
					"400": {
						"description": "Invalid amount or currency code",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/financial/currency/popular": {
			"get": {
				"summary": "Popular Currencies",
				"tags": [
					"Currency"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"type": "object",
								"title": "currency.Info"
							}
						}
					}
				}
			}
		},
		"/api/v1/financial/debt-analysis": {
			"post": {
				"summary": "Debt Analysis",
				"tags": [
					"Financial"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Debts by name and monthly income",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "finance.DebtAnalysisRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "finance.DebtAnalysis"
						}
					}
				}
			}
		},
		"/api/v1/financial/debt-payoff": {
			"post": {
				"summary": "Debt Payoff Time",
				"tags": [
					"Financial"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Debt details",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "finance.DebtPayoffRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "finance.DebtPayoffResult"
						}
					},
					"400": {
						"description": "Invalid input or payment below interest",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/financial/emi": {
			"post": {
				"summary": "EMI And Loan Analysis",
				"tags": [
					"Financial"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Loan details",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "finance.EMIRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "finance.LoanResult"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/financial/growth": {
			"post": {
				"summary": "Investment Growth",
				"tags": [
					"Financial"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Lump sum and monthly additions",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "finance.GrowthRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "finance.GrowthResult"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/financial/investments": {
			"post": {
				"summary": "Investment Recommendations",
				"tags": [
					"Financial"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Investor profile",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "finance.InvestmentRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "finance.InvestmentPlan"
						}
					}
				}
			}
		},
		"/api/v1/financial/sip": {
			"post": {
				"summary": "SIP Future Value",
				"tags": [
					"Financial"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "SIP details",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "finance.SIPRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "finance.SIPResult"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/financial/tax": {
			"post": {
				"summary": "Tax Regime Comparison",
				"description": "FY2024-25 old and new regime liability with tax-saving suggestions.",
				"tags": [
					"Financial"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Income and deductions",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "finance.TaxRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "finance.RegimeComparison"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/notifications/stream": {
			"get": {
				"summary": "Notification stream",
				"description": "Server-sent events for the caller: smart alerts, community replies and system messages.",
				"tags": [
					"Notifications"
				],
				"produces": [
					"text/event-stream"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "event stream",
						"schema": {
							"type": "string"
						}
					},
					"401": {
						"description": "Not authenticated",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/profile/insights": {
			"get": {
				"summary": "Personalized Insights",
				"description": "Greeting, topics, savings target, milestones and next steps for the caller.",
				"tags": [
					"Profile"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Language code, defaults to the user's preferred language",
						"name": "lang",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "profile.Insights"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/profile/types/{userType}": {
			"get": {
				"summary": "Personalization For A User Type",
				"tags": [
					"Profile"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "student, professional, beginner or intermediate",
						"name": "userType",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Language code",
						"name": "lang",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "profile.Insights"
						}
					}
				}
			}
		},
		"/api/v1/users/me": {
			"get": {
				"summary": "Get Current User Profile",
				"tags": [
					"Users"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "users.ProfileResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					},
					"404": {
						"description": "User not found",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"summary": "Update Current User Profile",
				"description": "Partial update. PAN and Aadhaar numbers are validated and stored encrypted.",
				"tags": [
					"Users"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Fields to change",
						"name": "profile",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "users.UpdateProfileRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "users.ProfileResponse"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"summary": "Delete Current User",
				"description": "Soft-deletes the account and ends all of its sessions.",
				"tags": [
					"Users"
				],
				"responses": {
					"204": {
						"description": "Deleted"
					}
				}
			}
		},
		"/api/v1/users/me/activities": {
			"get": {
				"summary": "List Recent Activities",
				"tags": [
					"Users"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Max entries (1-100, default 20)",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"type": "object",
								"title": "users.Activity"
							}
						}
					}
				}
			}
		},
		"/api/v1/users/me/export": {
			"get": {
				"summary": "Export Profile",
				"description": "Returns a JSON backup of the profile, preferences and recent activity.",
				"tags": [
					"Users"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "users.ProfileExport"
						}
					}
				}
			}
		},
		"/api/v1/users/me/financial-profile": {
			"get": {
				"summary": "Get Financial Profile",
				"tags": [
					"Users"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "users.FinancialProfile"
						}
					}
				}
			},
			"put": {
				"summary": "Save Financial Profile",
				"tags": [
					"Users"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Profile",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "users.FinancialProfile"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "users.FinancialProfile"
						}
					}
				}
			}
		},
		"/api/v1/users/me/financial-profile/reset": {
			"post": {
				"summary": "Reset Financial Profile",
				"tags": [
					"Users"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "users.FinancialProfile"
						}
					}
				}
			}
		},
		"/api/v1/users/me/import": {
			"post": {
				"summary": "Import Profile",
				"tags": [
					"Users"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "A previous export",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "users.ProfileExport"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "users.ImportResult"
						}
					},
					"400": {
						"description": "Unsupported format version or invalid fields",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/users/me/points": {
			"post": {
				"summary": "Award Points",
				"tags": [
					"Users"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Points and reason",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "users.AwardPointsRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "users.PointsResult"
						}
					}
				}
			}
		},
		"/api/v1/users/me/preferences": {
			"get": {
				"summary": "List Preferences",
				"tags": [
					"Users"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Only this category",
						"name": "category",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"type": "object",
								"title": "users.Preference"
							}
						}
					}
				}
			}
		},
		"/api/v1/users/me/preferences/{category}/{key}": {
			"put": {
				"summary": "Set Preference",
				"tags": [
					"Users"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Category",
						"name": "category",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Key",
						"name": "key",
						"in": "path",
						"required": true
					},
					{
						"description": "Value",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "users.PreferenceValue"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "users.Preference"
						}
					}
				}
			},
			"delete": {
				"summary": "Delete Preference",
				"tags": [
					"Users"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Category",
						"name": "category",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Key",
						"name": "key",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "Deleted"
					},
					"404": {
						"description": "Preference not found",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/voice/synthesize": {
			"post": {
				"summary": "Text to speech",
				"description": "Returns base64 audio, or text only with source \"text\" when no provider is available.",
				"tags": [
					"Voice"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Text to speak",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object",
							"title": "voice.SynthesizeRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "voice.Speech"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/v1/voice/transcribe": {
			"post": {
				"summary": "Speech to text",
				"description": "Accepts a raw wav, mp3, ogg or webm recording of at most 10 MiB.",
				"tags": [
					"Voice"
				],
				"consumes": [
					"octet-stream"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "wav, mp3, ogg or webm; detected when empty",
						"name": "format",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Language code",
						"name": "lang",
						"in": "query",
						"default": "en"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "voice.Transcription"
						}
					},
					"400": {
						"description": "Invalid audio",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					},
					"503": {
						"description": "Voice processing unavailable",
						"schema": {
							"$ref": "#/definitions/apperror.ErrorResponse"
						}
					}
				}
			}
		},
		"/health": {
			"get": {
				"summary": "Health check",
				"description": "Reports each dependency. A degraded service still answers 200.",
				"tags": [
					"Health"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"title": "health.Report"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"apperror.ErrorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "boolean",
					"example": true
				},
				"message": {
					"type": "string",
					"example": "A description of the error"
				},
				"status_code": {
					"type": "integer",
					"example": 400
				},
				"timestamp": {
					"type": "string",
					"example": "2024-06-01T10:00:00Z"
				},
				"request_id": {
					"type": "string"
				},
				"details": {
					"type": "object",
					"additionalProperties": {
						"type": "string"
					}
				}
			}
		}
	},
	"securityDefinitions": {
		"ApiKeyAuth": {
			"type": "apiKey",
			"name": "X-API-Key",
			"in": "header"
		},
		"BearerAuth": {
			"description": "Type 'Bearer YOUR_JWT_TOKEN' to authorize",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "2.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "JarvisFi API",
	Description:      "Multilingual personal finance assistant: chat, calculators, farmer tools, currency, voice and community.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
