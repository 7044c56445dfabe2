package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/mbeoliero/tradehub/internal/middleware"
	"github.com/mbeoliero/tradehub/internal/service"
	"github.com/mbeoliero/tradehub/pkg/errcode"
	"github.com/mbeoliero/tradehub/pkg/response"
)

// QuoteHandler handles quote-related requests
type QuoteHandler struct {
	quoteService *service.QuoteService
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quoteService *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService}
}

// SubmitQuote handles submit quote request
func (h *QuoteHandler) SubmitQuote(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req service.SubmitQuoteRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	quote, err := h.quoteService.Submit(ctx, userId, middleware.GetDisplayName(c), &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, quote)
}

// ListQuotes handles list quotes for an rfq request
func (h *QuoteHandler) ListQuotes(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	rfqId := c.Query("rfq_id")
	if rfqId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	quotes, err := h.quoteService.ListByRfq(ctx, rfqId, limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, quotes)
}
