// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

package models

// ItemCreated is the payload of create_item_queue messages.
type ItemCreated struct {
	Name       string `json:"name" validate:"required,max=512"`
	ItemID     *int   `json:"item_id" validate:"required,gte=0"`
	CategoryID *int   `json:"item_category_id" validate:"required,gte=0"`
}

// CategoryCreated is the payload of create_category_queue messages.
type CategoryCreated struct {
	CategoryID *int   `json:"category_id" validate:"required,gte=0"`
	Name       string `json:"name" validate:"required,max=512"`
}

// OrderCreated is the payload of create_order_queue messages. Date uses DateLayout.
type OrderCreated struct {
	Date      string  `json:"date" validate:"required,salesdate"`
	ItemID    *int    `json:"item_id" validate:"required,gte=0"`
	UnitPrice float64 `json:"item_price" validate:"gt=0"`
	Quantity  int     `json:"item_cnt_day" validate:"gt=0"`
	UserID    string  `json:"user_id" validate:"required,max=128"`
}
