// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

// Package ingest consumes catalog and order events and appends them to the
// CSV datasets read by the recommender and the forecaster.
//
// # Topics
//
//	create_item_queue      {"name", "item_id", "item_category_id"}  -> catalog
//	create_category_queue  {"category_id", "name"}                  -> validated and logged
//	create_order_queue     {"date", "item_id", "item_price",
//	                        "item_cnt_day", "user_id"}              -> co-purchase log
//
// # Processing
//
// Messages flow through a Watermill router with panic recovery and
// exponential-backoff retry. Payloads that fail to decode or validate are
// acknowledged and counted; retrying them cannot succeed. Store failures are
// returned so the router retries them. A message UUID seen before within the
// deduplication window is acknowledged without being stored again, which
// absorbs JetStream redeliveries after a lost ack.
//
// # Transport
//
// The router accepts any Watermill subscriber. Production builds with the
// nats build tag subscribe to NATS JetStream, optionally against an embedded
// nats-server. Without the tag the NATS constructors return
// ErrNATSNotAvailable. Tests use the gochannel pub/sub.
//
// Every append changes the dataset fingerprint, so recommendation similarity
// caches are rebuilt on the next request.
package ingest
