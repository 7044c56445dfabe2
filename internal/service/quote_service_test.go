package service

import (
	"context"
	"testing"

	"github.com/mbeoliero/tradehub/pkg/constant"
	"github.com/mbeoliero/tradehub/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteService_Submit(t *testing.T) {
	ctx := context.Background()
	notifyStore := newFakeNotifyStore()
	svc := NewQuoteService(newFakeQuoteStore(), notifyStore)

	quote, err := svc.Submit(ctx, "supplier1", "Supplier One", &SubmitQuoteRequest{
		RfqId:        "rfq1",
		BuyerId:      "buyer1",
		PriceCents:   125000,
		Currency:     "USD",
		LeadTimeDays: 14,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, quote.Id)
	assert.Equal(t, constant.QuoteStatusOpen, quote.Status)

	// The RFQ owner gets one notification
	rows := notifyStore.forRecipient("buyer1")
	require.Len(t, rows, 1)
	assert.Equal(t, constant.NotifyTypeNewQuote, rows[0].Type)
	assert.Equal(t, "rfq1", rows[0].Payload.RfqId)
	assert.Equal(t, quote.Id, rows[0].Payload.QuoteId)
	assert.Equal(t, "supplier1", rows[0].Payload.SenderId)
}

func TestQuoteService_Submit_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewQuoteService(newFakeQuoteStore(), newFakeNotifyStore())

	cases := []struct {
		name string
		req  SubmitQuoteRequest
	}{
		{"missing rfq", SubmitQuoteRequest{PriceCents: 100, Currency: "USD"}},
		{"zero price", SubmitQuoteRequest{RfqId: "rfq1", Currency: "USD"}},
		{"negative price", SubmitQuoteRequest{RfqId: "rfq1", PriceCents: -5, Currency: "USD"}},
		{"missing currency", SubmitQuoteRequest{RfqId: "rfq1", PriceCents: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, "supplier1", "Supplier One", &tc.req)
			assert.Equal(t, errcode.ErrInvalidParam, err)
		})
	}
}

func TestQuoteService_Submit_NoSelfNotify(t *testing.T) {
	ctx := context.Background()
	notifyStore := newFakeNotifyStore()
	svc := NewQuoteService(newFakeQuoteStore(), notifyStore)

	// Quoting on your own RFQ never notifies yourself
	_, err := svc.Submit(ctx, "supplier1", "Supplier One", &SubmitQuoteRequest{
		RfqId:      "rfq1",
		BuyerId:    "supplier1",
		PriceCents: 100,
		Currency:   "USD",
	})
	require.NoError(t, err)
	assert.Empty(t, notifyStore.forRecipient("supplier1"))
}

func TestQuoteService_ListByRfq(t *testing.T) {
	ctx := context.Background()
	svc := NewQuoteService(newFakeQuoteStore(), newFakeNotifyStore())

	for i := 0; i < 3; i++ {
		_, err := svc.Submit(ctx, "supplier1", "Supplier One", &SubmitQuoteRequest{
			RfqId:      "rfq1",
			PriceCents: int64(100 + i),
			Currency:   "USD",
		})
		require.NoError(t, err)
	}
	_, err := svc.Submit(ctx, "supplier1", "Supplier One", &SubmitQuoteRequest{
		RfqId:      "rfq2",
		PriceCents: 500,
		Currency:   "USD",
	})
	require.NoError(t, err)

	quotes, err := svc.ListByRfq(ctx, "rfq1", 0)
	require.NoError(t, err)
	require.Len(t, quotes, 3)

	// Newest first
	assert.Equal(t, int64(102), quotes[0].PriceCents)

	_, err = svc.ListByRfq(ctx, "", 0)
	assert.Equal(t, errcode.ErrInvalidParam, err)
}
