package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CatalogItemRequest struct {
	Name        string `json:"name" binding:"required"`
	ItemNumber  string `json:"item_number" binding:"required"`
	Cost        string `json:"cost" binding:"required"`
	DealerPrice string `json:"dealer_price" binding:"required"`
	MSRP        string `json:"msrp" binding:"required"`
}

type CatalogService interface {
	CreateItem(ctx context.Context, actor model.Actor, req CatalogItemRequest) (*model.CatalogItem, error)
	UpdateItem(ctx context.Context, actor model.Actor, id string, req CatalogItemRequest) (*model.CatalogItem, error)
	GetItem(ctx context.Context, id string) (*model.CatalogItem, error)
	ListItems(ctx context.Context, search string, page, limit int) ([]model.CatalogItem, int64, error)
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	log         zerolog.Logger
}

func NewCatalogService(catalogRepo repository.CatalogRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) CatalogService {
	return &catalogService{
		catalogRepo: catalogRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		log:         log.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *catalogService) CreateItem(ctx context.Context, actor model.Actor, req CatalogItemRequest) (*model.CatalogItem, error) {
	if !actor.ManufacturerSide() {
		return nil, apperr.Forbidden(actor.Role, "manage the catalog")
	}

	cost, dealerPrice, msrp, err := s.parsePrices(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.catalogRepo.FindByItemNumber(ctx, req.ItemNumber)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check item number: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("catalog_item", fmt.Sprintf("item number %q already exists", req.ItemNumber))
	}

	item := &model.CatalogItem{
		Name:        req.Name,
		ItemNumber:  req.ItemNumber,
		Cost:        cost,
		DealerPrice: dealerPrice,
		MSRP:        msrp,
	}
	s.warnPriceOrdering(item)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.catalogRepo.Create(txCtx, item); err != nil {
			return fmt.Errorf("failed to create catalog item: %w", err)
		}
		return s.writeCatalogAudit(txCtx, actor, model.ActionCreateCatalogItem, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *catalogService) UpdateItem(ctx context.Context, actor model.Actor, id string, req CatalogItemRequest) (*model.CatalogItem, error) {
	if !actor.ManufacturerSide() {
		return nil, apperr.Forbidden(actor.Role, "manage the catalog")
	}

	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("catalog_item", "invalid id: %v", err)
	}

	cost, dealerPrice, msrp, err := s.parsePrices(req)
	if err != nil {
		return nil, err
	}

	var item *model.CatalogItem
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		item, findErr = s.catalogRepo.FindByID(txCtx, itemID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("catalog_item", id)
			}
			return fmt.Errorf("failed to load catalog item: %w", findErr)
		}

		if req.ItemNumber != item.ItemNumber {
			other, numErr := s.catalogRepo.FindByItemNumber(txCtx, req.ItemNumber)
			if numErr != nil && !errors.Is(numErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to check item number: %w", numErr)
			}
			if other != nil {
				return apperr.Conflict("catalog_item", fmt.Sprintf("item number %q already exists", req.ItemNumber))
			}
		}

		item.Name = req.Name
		item.ItemNumber = req.ItemNumber
		item.Cost = cost
		item.DealerPrice = dealerPrice
		item.MSRP = msrp
		s.warnPriceOrdering(item)

		if err := s.catalogRepo.Update(txCtx, item); err != nil {
			return fmt.Errorf("failed to update catalog item: %w", err)
		}
		return s.writeCatalogAudit(txCtx, actor, model.ActionUpdateCatalogItem, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *catalogService) GetItem(ctx context.Context, id string) (*model.CatalogItem, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("catalog_item", "invalid id: %v", err)
	}
	item, err := s.catalogRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("catalog_item", id)
		}
		return nil, fmt.Errorf("failed to load catalog item: %w", err)
	}
	return item, nil
}

func (s *catalogService) ListItems(ctx context.Context, search string, page, limit int) ([]model.CatalogItem, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.catalogRepo.List(ctx, search, page, limit)
}

func (s *catalogService) parsePrices(req CatalogItemRequest) (cost, dealerPrice, msrp decimal.Decimal, err error) {
	cost, err = decimal.NewFromString(req.Cost)
	if err != nil {
		return cost, dealerPrice, msrp, apperr.Validation("catalog_item", "invalid cost %q", req.Cost)
	}
	dealerPrice, err = decimal.NewFromString(req.DealerPrice)
	if err != nil {
		return cost, dealerPrice, msrp, apperr.Validation("catalog_item", "invalid dealer_price %q", req.DealerPrice)
	}
	msrp, err = decimal.NewFromString(req.MSRP)
	if err != nil {
		return cost, dealerPrice, msrp, apperr.Validation("catalog_item", "invalid msrp %q", req.MSRP)
	}
	if cost.IsNegative() || dealerPrice.IsNegative() || msrp.IsNegative() {
		return cost, dealerPrice, msrp, apperr.Validation("catalog_item", "prices must not be negative")
	}
	return cost, dealerPrice, msrp, nil
}

// Unusual price ordering is allowed (closeout pricing happens) but worth a
// warning in the logs.
func (s *catalogService) warnPriceOrdering(item *model.CatalogItem) {
	if item.Cost.GreaterThan(item.DealerPrice) || item.DealerPrice.GreaterThan(item.MSRP) {
		s.log.Warn().
			Str("item_number", item.ItemNumber).
			Str("cost", item.Cost.String()).
			Str("dealer_price", item.DealerPrice.String()).
			Str("msrp", item.MSRP.String()).
			Msg("price ordering cost <= dealer_price <= msrp does not hold")
	}
}

func (s *catalogService) writeCatalogAudit(ctx context.Context, actor model.Actor, action string, item *model.CatalogItem) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"item_number":  item.ItemNumber,
		"cost":         item.Cost.String(),
		"dealer_price": item.DealerPrice.String(),
		"msrp":         item.MSRP.String(),
	})
	uid := actor.UserID
	entry := &model.AuditLog{
		UserID:     &uid,
		Action:     action,
		EntityID:   item.ID.String(),
		EntityName: item.Name,
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
