package service

import (
	"context"

	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/tradehub/internal/entity"
	"github.com/mbeoliero/tradehub/pkg/constant"
	"github.com/mbeoliero/tradehub/pkg/errcode"
	"github.com/mbeoliero/tradehub/pkg/idgen"
)

// QuoteService handles supplier quotes under RFQs. RFQ listings
// themselves are managed by the catalog layer; this service only owns
// the quote sub-collection.
type QuoteService struct {
	quoteStore  QuoteStore
	notifyStore NotificationStore
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(quoteStore QuoteStore, notifyStore NotificationStore) *QuoteService {
	return &QuoteService{quoteStore: quoteStore, notifyStore: notifyStore}
}

// SubmitQuoteRequest represents submit quote request. BuyerId is the
// RFQ owner as resolved by the caller; when set, the buyer gets a
// notification.
type SubmitQuoteRequest struct {
	RfqId        string `json:"rfq_id"`
	BuyerId      string `json:"buyer_id,omitempty"`
	PriceCents   int64  `json:"price_cents"`
	Currency     string `json:"currency"`
	LeadTimeDays int    `json:"lead_time_days"`
	Notes        string `json:"notes,omitempty"`
}

// Submit creates a quote and notifies the RFQ owner
func (s *QuoteService) Submit(ctx context.Context, supplierId, supplierName string, req *SubmitQuoteRequest) (*entity.Quote, error) {
	if req.RfqId == "" || supplierId == "" {
		return nil, errcode.ErrInvalidParam
	}
	if req.PriceCents <= 0 || req.Currency == "" {
		return nil, errcode.ErrInvalidParam
	}

	id, err := idgen.NextID()
	if err != nil {
		return nil, errcode.ErrInternalServer.Wrap(err)
	}

	quote := &entity.Quote{
		Id:           id,
		RfqId:        req.RfqId,
		SupplierId:   supplierId,
		SupplierName: supplierName,
		PriceCents:   req.PriceCents,
		Currency:     req.Currency,
		LeadTimeDays: req.LeadTimeDays,
		Notes:        req.Notes,
		Status:       constant.QuoteStatusOpen,
	}

	if err := s.quoteStore.Create(ctx, quote); err != nil {
		log.CtxError(ctx, "create quote failed: rfq_id=%s, error=%v", req.RfqId, err)
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}

	// Notify the buyer, best effort: a lost notification never blocks
	// the quote itself
	if req.BuyerId != "" && req.BuyerId != supplierId {
		s.notifyBuyer(ctx, quote, req.BuyerId)
	}

	log.CtxInfo(ctx, "quote submitted: id=%s, rfq_id=%s, supplier_id=%s", quote.Id, quote.RfqId, supplierId)
	return quote, nil
}

func (s *QuoteService) notifyBuyer(ctx context.Context, quote *entity.Quote, buyerId string) {
	acquired, err := s.notifyStore.AcquireFanoutKey(ctx, "quote:"+quote.Id, buyerId)
	if err != nil || !acquired {
		if err != nil {
			log.CtxError(ctx, "acquire quote fanout key failed: quote_id=%s, error=%v", quote.Id, err)
		}
		return
	}

	notification := &entity.Notification{
		RecipientId: buyerId,
		Type:        constant.NotifyTypeNewQuote,
		Payload: entity.NotifyPayload{
			RfqId:      quote.RfqId,
			QuoteId:    quote.Id,
			SenderId:   quote.SupplierId,
			SenderName: quote.SupplierName,
		},
	}
	if err := s.notifyStore.Create(ctx, notification); err != nil {
		log.CtxError(ctx, "create quote notification failed: quote_id=%s, buyer_id=%s, error=%v", quote.Id, buyerId, err)
	}
}

// ListByRfq lists the quotes under an RFQ, newest first
func (s *QuoteService) ListByRfq(ctx context.Context, rfqId string, limit int64) ([]*entity.Quote, error) {
	if rfqId == "" {
		return nil, errcode.ErrInvalidParam
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	quotes, err := s.quoteStore.ListByRfq(ctx, rfqId, limit)
	if err != nil {
		log.CtxError(ctx, "list quotes failed: rfq_id=%s, error=%v", rfqId, err)
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}
	return quotes, nil
}
