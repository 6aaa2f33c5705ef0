// Package docs holds the generated OpenAPI description of the fulfillment API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {
			"name": "API Support",
			"email": "support@example.com"
		},
		"license": {
			"name": "MIT"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/api/sales": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Sales"
				],
				"summary": "Create draft sale",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			},
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Sales"
				],
				"summary": "List sales",
				"parameters": [
					{
						"type": "string",
						"name": "status",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"name": "customer_id",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"name": "limit",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"name": "offset",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/sales/{id}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Sales"
				],
				"summary": "Get sale by ID",
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			},
			"put": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Sales"
				],
				"summary": "Update sale",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/sales/{id}/confirm": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Sales"
				],
				"summary": "Confirm sale",
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/sales/{id}/ship": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Sales"
				],
				"summary": "Ship sale",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/sales/{id}/deliver": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Sales"
				],
				"summary": "Mark sale delivered",
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/sales/{id}/cancel": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Sales"
				],
				"summary": "Cancel sale",
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/sales/{id}/payments": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Sales"
				],
				"summary": "Record payment",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/purchase-orders": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Purchasing"
				],
				"summary": "Create purchase order",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/purchase-orders/{id}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Purchasing"
				],
				"summary": "Get purchase order by ID",
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/purchase-orders/{id}/items/{item_id}/receive": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Purchasing"
				],
				"summary": "Receive purchase order item",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "item_id",
						"in": "path",
						"required": true
					},
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/purchase-orders/{id}/cancel": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Purchasing"
				],
				"summary": "Cancel purchase order",
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/transfers": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Transfers"
				],
				"summary": "Create warehouse transfer",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/transfers/{id}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Transfers"
				],
				"summary": "Get transfer by ID",
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/transfers/{id}/dispatch": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Transfers"
				],
				"summary": "Dispatch transfer",
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/transfers/{id}/complete": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Transfers"
				],
				"summary": "Complete transfer",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"name": "request",
						"in": "body",
						"required": false,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/transfers/{id}/cancel": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Transfers"
				],
				"summary": "Cancel transfer",
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/stock/adjustments": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Stock"
				],
				"summary": "Adjust stock",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/stock/low": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Stock"
				],
				"summary": "List low stock products",
				"parameters": [
					{
						"type": "integer",
						"name": "limit",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/stock/{product_id}/{warehouse_id}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Stock"
				],
				"summary": "Get stock level",
				"parameters": [
					{
						"type": "string",
						"name": "product_id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "warehouse_id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/products/{product_id}/reconciliation": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Stock"
				],
				"summary": "Reconcile product stock",
				"parameters": [
					{
						"type": "string",
						"name": "product_id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/transactions": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Stock"
				],
				"summary": "List inventory transactions",
				"parameters": [
					{
						"type": "string",
						"name": "product_id",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"name": "warehouse_id",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"name": "reference_type",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"name": "reference_id",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"name": "cursor",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"name": "limit",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/batches/expiring": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Tracking"
				],
				"summary": "List expiring batches",
				"parameters": [
					{
						"type": "integer",
						"name": "days",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"name": "limit",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/serials": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Tracking"
				],
				"summary": "Register serial numbers",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			},
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Tracking"
				],
				"summary": "List serial numbers",
				"parameters": [
					{
						"type": "string",
						"name": "product_id",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"name": "warehouse_id",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"name": "sale_id",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"name": "status",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"name": "limit",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"name": "offset",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/products": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Catalog"
				],
				"summary": "Create product",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			},
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Catalog"
				],
				"summary": "List products",
				"parameters": [
					{
						"type": "string",
						"name": "category",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"name": "limit",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"name": "offset",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/products/{id}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Catalog"
				],
				"summary": "Get product by ID",
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/warehouses": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Catalog"
				],
				"summary": "Create warehouse",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			},
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Catalog"
				],
				"summary": "List warehouses",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/customers": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Catalog"
				],
				"summary": "Create customer",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/api/suppliers": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Catalog"
				],
				"summary": "Create supplier",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		},
		"/health": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Health"
				],
				"summary": "Health check",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/Response"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"Response": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean"
				},
				"message": {
					"type": "string"
				},
				"data": {
					"type": "object"
				},
				"error": {
					"type": "string"
				},
				"kind": {
					"type": "string"
				}
			}
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:		  "1.0",
	Host:			 "localhost:8084",
	BasePath:		 "/",
	Schemes:		  []string{},
	Title:			"Fulfillment Service API",
	Description:	  "Sales, purchasing, transfers and the stock ledger behind them",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:		"{{",
	RightDelim:	   "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
