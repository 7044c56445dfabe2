package entity

import "time"

// Quote is a supplier's answer to an RFQ. Quotes live in their own
// collection keyed by rfq_id so quote lists can be streamed without
// loading the RFQ document.
type Quote struct {
	Id           string    `bson:"_id" json:"id"`
	RfqId        string    `bson:"rfq_id" json:"rfq_id"`
	SupplierId   string    `bson:"supplier_id" json:"supplier_id"`
	SupplierName string    `bson:"supplier_name" json:"supplier_name"`
	PriceCents   int64     `bson:"price_cents" json:"price_cents"`
	Currency     string    `bson:"currency" json:"currency"`
	LeadTimeDays int       `bson:"lead_time_days" json:"lead_time_days"`
	Notes        string    `bson:"notes,omitempty" json:"notes,omitempty"`
	Status       string    `bson:"status" json:"status"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
