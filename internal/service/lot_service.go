package service

import (
	"context"
	"encoding/json"
	"fmt"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type CreateLotRequest struct {
	BatchNumber    string `json:"batch_number" binding:"required"`
	ShadeNumber    string `json:"shade_number" binding:"required"`
	PackageNumber  string `json:"package_number" binding:"required"`
	ReceivedDate   string `json:"received_date" binding:"required"`
	PiecesReceived int    `json:"pieces_received" binding:"required,min=1"`
}

type LotService interface {
	CreateLot(ctx context.Context, actor model.Actor, req CreateLotRequest) (*model.InventoryLot, error)
	ListLots(ctx context.Context, page, limit int) ([]model.InventoryLot, int64, error)
}

type lotService struct {
	lotRepo   repository.LotRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	log       zerolog.Logger
}

func NewLotService(lotRepo repository.LotRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) LotService {
	return &lotService{
		lotRepo:   lotRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		log:       log.With().Str("component", "lot_service").Logger(),
	}
}

func (s *lotService) CreateLot(ctx context.Context, actor model.Actor, req CreateLotRequest) (*model.InventoryLot, error) {
	if !actor.ManufacturerSide() {
		return nil, apperr.Forbidden(actor.Role, "receive inventory lots")
	}
	if req.PiecesReceived < 1 {
		return nil, apperr.Validation("inventory_lot", "pieces_received must be at least 1")
	}

	receivedDate, err := parseDate("received_date", req.ReceivedDate)
	if err != nil {
		return nil, err
	}

	lot := &model.InventoryLot{
		BatchNumber:     req.BatchNumber,
		ShadeNumber:     req.ShadeNumber,
		PackageNumber:   req.PackageNumber,
		ReceivedDate:    receivedDate,
		PiecesReceived:  req.PiecesReceived,
		PiecesAvailable: req.PiecesReceived,
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.lotRepo.Create(txCtx, lot); err != nil {
			return fmt.Errorf("failed to create inventory lot: %w", err)
		}
		payload, _ := json.Marshal(map[string]interface{}{
			"batch_number":    lot.BatchNumber,
			"shade_number":    lot.ShadeNumber,
			"package_number":  lot.PackageNumber,
			"pieces_received": lot.PiecesReceived,
		})
		uid := actor.UserID
		entry := &model.AuditLog{
			UserID:     &uid,
			Action:     model.ActionCreateLot,
			EntityID:   lot.ID.String(),
			EntityName: lot.BatchNumber,
			Details:    string(payload),
		}
		if err := s.auditRepo.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

func (s *lotService) ListLots(ctx context.Context, page, limit int) ([]model.InventoryLot, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.lotRepo.List(ctx, page, limit)
}
