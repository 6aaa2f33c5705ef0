package main

// @title Fulfillment Service API
// @version 1.0
// @description Sales, purchasing and warehouse transfers over a transactional stock ledger, with full observability (logging, tracing, metrics)
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/tair/fulfillment-ledger
// @contact.email support@example.com

// @license.name MIT
// @license.url https://github.com/tair/fulfillment-ledger/blob/main/LICENSE

// @host localhost:8084
// @BasePath /

// @tag.name Sales
// @tag.description Sale lifecycle from draft to delivery

// @tag.name Purchasing
// @tag.description Purchase orders and goods receipt

// @tag.name Transfers
// @tag.description Stock movements between warehouses

// @tag.name Stock
// @tag.description Stock levels, adjustments and the transaction log

// @tag.name Tracking
// @tag.description Serial numbers and batches

// @tag.name Catalog
// @tag.description Products, warehouses, customers and suppliers

// @tag.name Health
// @tag.description Health check endpoints

// @tag.name Swagger
// @tag.description Swagger documentation endpoints
