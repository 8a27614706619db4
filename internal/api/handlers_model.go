// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/tomtom215/salesight/internal/forecast"
	"github.com/tomtom215/salesight/internal/logging"
	"github.com/tomtom215/salesight/internal/recommend"
	"github.com/tomtom215/salesight/internal/store"
	"github.com/tomtom215/salesight/internal/validation"
)

// Ping handles GET /ping.
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, "pong")
}

// Recommend handles POST /model/recommendation/.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RecommendationRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	topN := req.TopN
	if topN == 0 {
		topN = h.recommender.DefaultTopN()
	}

	ctx := logging.ContextWithUserID(r.Context(), req.UserID)
	res, err := h.recommender.Recommend(ctx, req.UserID, req.History, topN)
	if err != nil {
		h.writeModelError(ctx, rw, err, "recommendation failed")
		return
	}

	products := make([]string, len(res.Items))
	for i, id := range res.Items {
		products[i] = strconv.Itoa(id)
	}
	WriteJSON(w, http.StatusOK, RecommendationResponse{
		RecommendedProducts: products,
		BucketID:            res.Bucket,
		Fallback:            res.Fallback,
	})
}

// Predict handles GET /model/predict?item_id=N[&as_of=YYYY-MM-DD].
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	itemID, asOf, err := parsePredictParams(r, h.now())
	if err != nil {
		code := ErrCodeInvalidItemID
		if errors.Is(err, errInvalidAsOf) || errors.Is(err, errAsOfRange) {
			code = ErrCodeInvalidDate
		}
		rw.Error(http.StatusBadRequest, code, err.Error())
		return
	}

	ctx := r.Context()
	res, err := h.forecaster.Forecast(ctx, itemID, asOf)
	switch {
	case err == nil:
	case errors.Is(err, forecast.ErrNotFound):
		rw.NotFound("no price history for item " + strconv.Itoa(itemID))
		return
	case errors.Is(err, forecast.ErrForecastUnavailable):
		logging.Ctx(ctx).Warn().Err(err).Int("item_id", itemID).Msg("Forecast unavailable")
		rw.ServiceUnavailable(ErrCodeForecastUnavailable, "not enough price history to forecast item "+strconv.Itoa(itemID))
		return
	default:
		h.writeModelError(ctx, rw, err, "forecast failed")
		return
	}

	WriteJSON(w, http.StatusOK, PredictResponse{
		ItemID:         res.ItemID,
		PredictedPrice: res.PredictedPrice,
		AsOf:           res.AsOf.Format(AsOfLayout),
	})
}

// writeModelError maps errors shared by the model endpoints.
func (h *Handler) writeModelError(ctx context.Context, rw *ResponseWriter, err error, msg string) {
	logger := logging.Ctx(ctx)
	switch {
	case errors.Is(err, recommend.ErrInvalidTopN):
		rw.BadRequest(err.Error())
	case errors.Is(err, context.Canceled):
		logger.Debug().Err(err).Msg("Client went away")
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "request cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn().Err(err).Msg(msg)
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "request timed out")
	case errors.Is(err, store.ErrMalformedInput):
		logger.Error().Err(err).Msg(msg)
		rw.Error(http.StatusInternalServerError, ErrCodeDataError, "dataset is malformed")
	default:
		logger.Error().Err(err).Msg(msg)
		rw.InternalError(msg)
	}
}
