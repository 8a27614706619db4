// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

/*
Package supervisor runs the long-lived parts of the server under a suture v4
supervisor tree.

The tree has three layers, each its own supervisor so a crash loop in one
layer does not take the others down:

	salesight (root)
	├── data-layer       recommendation event sink, similarity cache maintenance
	├── messaging-layer  ingest router (NATS JetStream)
	└── api-layer        HTTP server

Services implement suture.Service:

	Serve(ctx context.Context) error

Returning an error restarts the service with backoff once FailureThreshold
failures accumulate within the decay window. Returning suture.ErrDoNotRestart
stops it permanently. Supervisor events are logged through sutureslog onto
the zerolog-backed slog.Logger from the logging package.

Wrappers that adapt Start/Shutdown style components live in the services
subpackage.
*/
package supervisor
