package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/autosave"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/model/entity"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/pricing"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/repository"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/sse"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/token"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// backfillPageSize is how many tokened quotes the expiration backfill reads
// per page.
const backfillPageSize = 500

var validQuoteStatuses = map[string]bool{
	entity.QuoteStatusDraft:    true,
	entity.QuoteStatusOpen:     true,
	entity.QuoteStatusSent:     true,
	entity.QuoteStatusAccepted: true,
	entity.QuoteStatusRejected: true,
	entity.QuoteStatusExpired:  true,
	entity.QuoteStatusArchived: true,
}

// QuoteService manages quotations: derivation of line items through the
// pricing rules, public access tokens, draft autosave and the send flow.
type QuoteService struct {
	repo         *repository.QuoteRepository
	customerRepo *repository.CustomerRepository
	productRepo  *repository.ProductRepository
	signer       *token.Signer
	mail         *MailService
	hub          *sse.Hub
	drafts       *autosave.Manager
	tokenTTL     time.Duration
	logger       *zap.Logger
}

func NewQuoteService(
	repo *repository.QuoteRepository,
	customerRepo *repository.CustomerRepository,
	productRepo *repository.ProductRepository,
	signer *token.Signer,
	mail *MailService,
	hub *sse.Hub,
	tokenTTL time.Duration,
	logger *zap.Logger,
	autosaveOpts ...autosave.Option,
) *QuoteService {
	s := &QuoteService{
		repo:         repo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		signer:       signer,
		mail:         mail,
		hub:          hub,
		tokenTTL:     tokenTTL,
		logger:       logger,
	}
	opts := append([]autosave.Option{autosave.WithLogger(logger)}, autosaveOpts...)
	s.drafts = autosave.NewManager(s.persistDraft, opts...)
	return s
}

type QuoteItemRequest struct {
	ProductID        string  `json:"product_id" binding:"required"`
	RequiredQuantity float64 `json:"required_quantity" binding:"required,gt=0"`
	Discount         float64 `json:"discount" binding:"gte=0"`
	DiscountType     string  `json:"discount_type" binding:"omitempty,oneof=percentage fixed"`
}

type CreateQuoteRequest struct {
	CustomerID string             `json:"customer_id" binding:"required"`
	Notes      string             `json:"notes"`
	Items      []QuoteItemRequest `json:"items"`
}

type UpdateQuoteRequest struct {
	Notes *string            `json:"notes"`
	Items []QuoteItemRequest `json:"items"`
}

type QuoteListResult struct {
	Items      []entity.Quote `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

func (s *QuoteService) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) (*QuoteListResult, error) {
	quotes, total, err := s.repo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &QuoteListResult{
		Items:      quotes,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *QuoteService) Get(ctx context.Context, id string) (*entity.Quote, error) {
	quote, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find quote: %w", err)
	}
	return quote, nil
}

// buildItems re-derives every line item from its product through the pricing
// rules. Always a full recompute, never incremental.
func (s *QuoteService) buildItems(ctx context.Context, quoteID string, reqs []QuoteItemRequest) ([]entity.QuoteItem, error) {
	items := make([]entity.QuoteItem, 0, len(reqs))
	for _, req := range reqs {
		product, err := s.productRepo.FindByID(ctx, req.ProductID)
		if err != nil {
			return nil, fmt.Errorf("find product %s: %w", req.ProductID, err)
		}
		item := pricing.BuildItem(product, req.RequiredQuantity, req.Discount, req.DiscountType)
		item.ID = uuid.New().String()[:32]
		item.QuoteID = quoteID
		items = append(items, item)
	}
	return items, nil
}

// Create opens a new quote. Quotes start in the "open" status; "draft" only
// exists for autosaved work-in-progress.
func (s *QuoteService) Create(ctx context.Context, userID string, req *CreateQuoteRequest) (*entity.Quote, error) {
	if _, err := s.customerRepo.FindByID(ctx, req.CustomerID); err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}

	quoteID := uuid.New().String()[:32]
	items, err := s.buildItems(ctx, quoteID, req.Items)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	quote := &entity.Quote{
		ID:         quoteID,
		CustomerID: req.CustomerID,
		Status:     entity.QuoteStatusOpen,
		Total:      pricing.Total(items),
		Notes:      req.Notes,
		CreatedBy:  userID,
		CreatedAt:  now,
		UpdatedAt:  now,
		Items:      items,
	}

	if err := s.repo.Create(ctx, quote); err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}

	s.hub.PublishQuoteUpdate(quote.ID, "created")
	return s.repo.FindByID(ctx, quote.ID)
}

// Update replaces the notes and item set. Items are rebuilt in full so a
// quantity edit re-derives packages, subtotals and discounts.
func (s *QuoteService) Update(ctx context.Context, id string, req *UpdateQuoteRequest) (*entity.Quote, error) {
	quote, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find quote: %w", err)
	}

	if req.Notes != nil {
		quote.Notes = *req.Notes
	}

	if req.Items != nil {
		items, err := s.buildItems(ctx, quote.ID, req.Items)
		if err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceItems(ctx, quote.ID, items); err != nil {
			return nil, fmt.Errorf("replace items: %w", err)
		}
		quote.Total = pricing.Total(items)
	}

	if err := s.repo.UpdateColumns(ctx, quote.ID, map[string]interface{}{
		"notes":      quote.Notes,
		"total":      quote.Total,
		"updated_at": time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("update quote: %w", err)
	}

	s.hub.PublishQuoteUpdate(quote.ID, "updated")
	return s.repo.FindByID(ctx, quote.ID)
}

// Send issues a fresh access token, persists it together with its expiry,
// marks the quote sent and emails the public link to the customer. Issuing a
// new token overwrites the stored column, which revokes any link shared
// earlier.
func (s *QuoteService) Send(ctx context.Context, id string, ttl time.Duration) (*entity.Quote, error) {
	quote, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find quote: %w", err)
	}

	customer, err := s.customerRepo.FindByID(ctx, quote.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}

	if ttl <= 0 {
		ttl = s.tokenTTL
	}
	accessToken, expiresAt, err := s.signer.IssueQuoteToken(quote.ID, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	if err := s.repo.UpdateColumns(ctx, quote.ID, map[string]interface{}{
		"access_token":    accessToken,
		"expiration_date": expiresAt,
		"status":          entity.QuoteStatusSent,
		"updated_at":      time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("update quote: %w", err)
	}

	quote.AccessToken = accessToken
	quote.ExpirationDate = &expiresAt
	quote.Status = entity.QuoteStatusSent

	if err := s.mail.SendQuote(ctx, customer, quote, accessToken); err != nil {
		return nil, fmt.Errorf("send quote email: %w", err)
	}

	s.hub.PublishQuoteUpdate(quote.ID, "sent")
	return quote, nil
}

// SetStatus writes a status. Statuses form a flat enum with externally
// triggered transitions; any caller may set any valid status.
func (s *QuoteService) SetStatus(ctx context.Context, id, status string) (*entity.Quote, error) {
	if !validQuoteStatuses[status] {
		return nil, fmt.Errorf("invalid status: %s", status)
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, fmt.Errorf("find quote: %w", err)
	}

	if err := s.repo.UpdateColumns(ctx, id, map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.hub.PublishQuoteUpdate(id, "status_"+status)
	return s.repo.FindByID(ctx, id)
}

// Delete removes a quote that was never sent; once sent it is archived
// instead, keeping the record for the customer-facing history.
func (s *QuoteService) Delete(ctx context.Context, id string) (archived bool, err error) {
	quote, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("find quote: %w", err)
	}

	if quote.Status == entity.QuoteStatusDraft || quote.Status == entity.QuoteStatusOpen {
		if err := s.repo.Delete(ctx, id); err != nil {
			return false, fmt.Errorf("delete quote: %w", err)
		}
		s.drafts.Release(id)
		s.hub.PublishQuoteUpdate(id, "deleted")
		return false, nil
	}

	if err := s.repo.UpdateColumns(ctx, id, map[string]interface{}{
		"status":     entity.QuoteStatusArchived,
		"updated_at": time.Now(),
	}); err != nil {
		return false, fmt.Errorf("archive quote: %w", err)
	}
	s.hub.PublishQuoteUpdate(id, "archived")
	return true, nil
}

// AccessByToken serves the public quote link: signature and expiry are
// checked first, then the stored access_token column must still equal the
// presented token. A mismatch means the link was revoked by issuing a newer
// one and reads as not found.
func (s *QuoteService) AccessByToken(ctx context.Context, tokenString string) (*entity.Quote, error) {
	claims, err := s.signer.VerifyQuoteToken(tokenString)
	if err != nil {
		return nil, err
	}

	quote, err := s.repo.FindByAccessToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	if quote.ID != claims.QuoteID {
		return nil, repository.ErrNotFound
	}

	return quote, nil
}

// BackfillResult reports one expiration backfill run.
type BackfillResult struct {
	Scanned        int `json:"scanned"`
	Updated        int `json:"updated"`
	SkippedInvalid int `json:"skipped_invalid"`
	SkippedCurrent int `json:"skipped_current"`
}

// BackfillExpirations re-derives expiration_date from the expiry claim of
// already-issued access tokens, in pages of 500. Rows whose token fails
// signature verification are left untouched; rows whose stored expiry
// already matches to the second are an idempotent no-op.
func (s *QuoteService) BackfillExpirations(ctx context.Context) (*BackfillResult, error) {
	result := &BackfillResult{}

	for offset := 0; ; offset += backfillPageSize {
		page, err := s.repo.ListTokenedPage(ctx, offset, backfillPageSize)
		if err != nil {
			return nil, fmt.Errorf("list quotes page: %w", err)
		}
		if len(page) == 0 {
			break
		}

		for _, quote := range page {
			result.Scanned++

			claims, err := s.signer.DecodeQuoteToken(quote.AccessToken)
			if err != nil || claims.ExpiresAt == nil {
				result.SkippedInvalid++
				s.logger.Warn("backfill: unverifiable access token, leaving row untouched",
					zap.String("quote_id", quote.ID),
				)
				continue
			}

			computed := claims.ExpiresAt.Time
			if quote.ExpirationDate != nil &&
				quote.ExpirationDate.Truncate(time.Second).Equal(computed.Truncate(time.Second)) {
				result.SkippedCurrent++
				continue
			}

			if err := s.repo.UpdateColumns(ctx, quote.ID, map[string]interface{}{
				"expiration_date": computed,
			}); err != nil {
				return nil, fmt.Errorf("update quote %s: %w", quote.ID, err)
			}
			result.Updated++
		}

		if len(page) < backfillPageSize {
			break
		}
	}

	s.logger.Info("expiration backfill finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("updated", result.Updated),
		zap.Int("skipped_invalid", result.SkippedInvalid),
		zap.Int("skipped_current", result.SkippedCurrent),
	)
	return result, nil
}

// Autosave merges an incoming draft over the stored quote and feeds it to
// the per-quote debounced controller. Item IDs are left blank so identical
// drafts compare equal; persistence assigns them.
func (s *QuoteService) Autosave(ctx context.Context, id string, req *UpdateQuoteRequest) (saving, saved, dirty bool, err error) {
	quote, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, false, false, fmt.Errorf("find quote: %w", err)
	}

	draft := *quote
	if req.Notes != nil {
		draft.Notes = *req.Notes
	}
	if req.Items != nil {
		items, err := s.buildItems(ctx, id, req.Items)
		if err != nil {
			return false, false, false, err
		}
		for i := range items {
			items[i].ID = ""
		}
		draft.Items = items
		draft.Total = pricing.Total(items)
	}

	saving, saved, dirty = s.AutosaveDraft(&draft)
	return saving, saved, dirty, nil
}

// AutosaveDraft feeds the latest client draft into the per-quote debounced
// controller and reports its flags. The save itself happens later, at most
// once per debounce window.
func (s *QuoteService) AutosaveDraft(draft *entity.Quote) (saving, saved, dirty bool) {
	ctrl := s.drafts.Get(draft.ID)
	ctrl.Update(draft)
	return ctrl.State()
}

// ReleaseDraft drops the draft controller for a quote, cancelling any pending
// save. Called when the editing session ends.
func (s *QuoteService) ReleaseDraft(quoteID string) {
	s.drafts.Release(quoteID)
}

// Shutdown cancels all pending draft saves.
func (s *QuoteService) Shutdown() {
	s.drafts.Shutdown()
}

// persistDraft is the autosave SaveFunc: it writes the draft's own fields and
// item set, leaving volatile columns to the flows that own them.
func (s *QuoteService) persistDraft(ctx context.Context, draft *entity.Quote) error {
	items := make([]entity.QuoteItem, len(draft.Items))
	copy(items, draft.Items)
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()[:32]
		}
		items[i].QuoteID = draft.ID
	}

	if err := s.repo.ReplaceItems(ctx, draft.ID, items); err != nil {
		return fmt.Errorf("replace items: %w", err)
	}

	if err := s.repo.UpdateColumns(ctx, draft.ID, map[string]interface{}{
		"notes":      draft.Notes,
		"total":      pricing.Total(items),
		"updated_at": time.Now(),
	}); err != nil {
		return fmt.Errorf("update quote: %w", err)
	}

	s.hub.PublishQuoteUpdate(draft.ID, "autosaved")
	return nil
}
