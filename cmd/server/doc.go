// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

/*
Package main is the entry point for the Salesight server.

Salesight serves product recommendations and price forecasts computed from
CSV transaction logs, and optionally consumes catalog and order events from
NATS JetStream to grow those logs.

# Application Architecture

	RootSupervisor ("salesight")
	├── DataSupervisor ("data-layer")
	│   ├── Recommendation event sink (CSV, circuit breaker)
	│   └── Similarity cache maintenance
	├── MessagingSupervisor ("messaging-layer")
	│   └── Ingest router (optional, -tags nats)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi)

# Configuration

Configuration is loaded via Koanf v2 (highest priority wins):

	Priority: Environment variables > Config file > Defaults

The config file is taken from --config, then CONFIG_PATH, then
./config.yaml. Common environment variables:

	HTTP_PORT=8001
	LOG_LEVEL=info
	LOG_FORMAT=json
	SALES_CSV=data/sales_train.csv
	CATALOG_CSV=data/items.csv
	CO_PURCHASES_CSV=data/sales_prod.csv
	EVENTS_CSV=data/all_recommendations.csv
	INGEST_ENABLED=false
	NATS_URL=nats://localhost:4222

# Build Tags

	go build ./cmd/server               # HTTP only
	go build -tags nats ./cmd/server    # with JetStream ingest

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for
server.shutdown_timeout and the ingest router waits for in-flight messages.
*/
package main
