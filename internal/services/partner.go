package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Victor-talka/talka-history/internal/models"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SaleStatusPending   = "pending"
	SaleStatusConfirmed = "confirmed"

	CommissionStatusPending = "pending"
	CommissionStatusPaid    = "paid"

	commissionTypeStandard = "standard"
)

// commissionTier applies Rate once confirmed revenue reaches MinRevenue
type commissionTier struct {
	MinRevenue float64
	Rate       float64
}

// commissionTiers are ordered from the highest threshold down
var commissionTiers = []commissionTier{
	{MinRevenue: 50000, Rate: 0.50},
	{MinRevenue: 0, Rate: 0.35},
}

var paymentMethodTypes = map[string]bool{
	"pix":           true,
	"bank_transfer": true,
	"paypal":        true,
}

// CommissionRate returns the rate earned at a confirmed revenue total
func CommissionRate(totalRevenue float64) float64 {
	for _, tier := range commissionTiers {
		if totalRevenue >= tier.MinRevenue {
			return tier.Rate
		}
	}
	return commissionTiers[len(commissionTiers)-1].Rate
}

// PartnerService handles partners, sales, commissions and payment methods
type PartnerService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewPartnerService creates a new partner service
func NewPartnerService(db *gorm.DB, log *zap.Logger) *PartnerService {
	return &PartnerService{
		db:  db,
		log: log,
	}
}

// CreatePartnerInput carries the fields of a new partner
type CreatePartnerInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	CompanyType string `json:"company_type"`
	Phone       string `json:"phone"`
}

// PartnerStats aggregates a partner's sales and commissions
type PartnerStats struct {
	TotalSales         float64 `json:"total_sales"`
	TotalCommissions   float64 `json:"total_commissions"`
	PendingCommissions float64 `json:"pending_commissions"`
	SalesCount         int64   `json:"sales_count"`
}

// PartnerDetails is a partner with its stats
type PartnerDetails struct {
	models.Partner
	Stats PartnerStats `json:"stats"`
}

// CreateSaleInput carries the fields of a new sale
type CreateSaleInput struct {
	ClientName  string  `json:"client_name"`
	ClientEmail string  `json:"client_email"`
	Amount      float64 `json:"amount"`
	PlanType    string  `json:"plan_type"`
}

// SaleConfirmation is the outcome of confirming a sale
type SaleConfirmation struct {
	Sale       models.Sale       `json:"sale"`
	Commission models.Commission `json:"commission"`
	Rate       float64           `json:"commission_rate"`
}

// PaymentMethodInput carries the fields of a new payment method
type PaymentMethodInput struct {
	MethodType string          `json:"method_type"`
	Details    json.RawMessage `json:"details"`
	IsDefault  bool            `json:"is_default"`
}

// CreatePartner registers a partner; emails are unique
func (s *PartnerService) CreatePartner(ctx context.Context, in CreatePartnerInput) (*models.Partner, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Name == "" || in.Email == "" || in.CompanyName == "" || in.CompanyType == "" {
		return nil, fmt.Errorf("name, email, company_name and company_type are required: %w", ErrInvalidInput)
	}

	partner := models.Partner{
		Name:        in.Name,
		Email:       in.Email,
		CompanyName: in.CompanyName,
		CompanyType: in.CompanyType,
		Phone:       in.Phone,
		IsActive:    true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Partner{}).Where("email = ?", partner.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("email already registered: %w", ErrConflict)
		}
		if err := tx.Create(&partner).Error; err != nil {
			return fmt.Errorf("failed to create partner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Partner created", zap.Uint("partner_id", partner.ID))
	return &partner, nil
}

// ListPartners returns every partner, newest first
func (s *PartnerService) ListPartners(ctx context.Context) ([]models.Partner, error) {
	var partners []models.Partner
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&partners).Error; err != nil {
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	return partners, nil
}

// GetPartner returns a partner with its sales and commission totals
func (s *PartnerService) GetPartner(ctx context.Context, id uint) (*PartnerDetails, error) {
	db := s.db.WithContext(ctx)

	partner, err := findPartner(db, id)
	if err != nil {
		return nil, err
	}

	details := PartnerDetails{Partner: *partner}

	if err := db.Model(&models.Sale{}).
		Where("partner_id = ? AND status = ?", id, SaleStatusConfirmed).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&details.Stats.TotalSales).Error; err != nil {
		return nil, fmt.Errorf("failed to sum sales: %w", err)
	}
	if err := db.Model(&models.Commission{}).
		Where("partner_id = ? AND status = ?", id, CommissionStatusPaid).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&details.Stats.TotalCommissions).Error; err != nil {
		return nil, fmt.Errorf("failed to sum paid commissions: %w", err)
	}
	if err := db.Model(&models.Commission{}).
		Where("partner_id = ? AND status = ?", id, CommissionStatusPending).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&details.Stats.PendingCommissions).Error; err != nil {
		return nil, fmt.Errorf("failed to sum pending commissions: %w", err)
	}
	if err := db.Model(&models.Sale{}).Where("partner_id = ?", id).Count(&details.Stats.SalesCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}

	return &details, nil
}

// CreateSale records a pending sale for a partner
func (s *PartnerService) CreateSale(ctx context.Context, partnerID uint, in CreateSaleInput) (*models.Sale, error) {
	if in.ClientName == "" || in.ClientEmail == "" || in.PlanType == "" {
		return nil, fmt.Errorf("client_name, client_email and plan_type are required: %w", ErrInvalidInput)
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", ErrInvalidInput)
	}

	db := s.db.WithContext(ctx)
	if _, err := findPartner(db, partnerID); err != nil {
		return nil, err
	}

	sale := models.Sale{
		PartnerID:   partnerID,
		ClientName:  in.ClientName,
		ClientEmail: in.ClientEmail,
		Amount:      in.Amount,
		PlanType:    in.PlanType,
		Status:      SaleStatusPending,
	}
	if err := db.Create(&sale).Error; err != nil {
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}
	return &sale, nil
}

// ListSales returns a partner's sales, newest first
func (s *PartnerService) ListSales(ctx context.Context, partnerID uint) ([]models.Sale, error) {
	var sales []models.Sale
	if err := s.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("created_at DESC, id DESC").
		Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	return sales, nil
}

// ConfirmSale confirms a sale and creates its commission. The rate depends
// on the partner's confirmed revenue including this sale.
func (s *PartnerService) ConfirmSale(ctx context.Context, saleID uint) (*SaleConfirmation, error) {
	var result SaleConfirmation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sale models.Sale
		if err := tx.First(&sale, saleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("sale %d: %w", saleID, ErrNotFound)
			}
			return fmt.Errorf("failed to get sale: %w", err)
		}
		if sale.Status == SaleStatusConfirmed {
			return fmt.Errorf("sale already confirmed: %w", ErrConflict)
		}

		now := time.Now().UTC()
		sale.Status = SaleStatusConfirmed
		sale.ConfirmedAt = &now
		if err := tx.Save(&sale).Error; err != nil {
			return fmt.Errorf("failed to confirm sale: %w", err)
		}

		var totalRevenue float64
		if err := tx.Model(&models.Sale{}).
			Where("partner_id = ? AND status = ?", sale.PartnerID, SaleStatusConfirmed).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&totalRevenue).Error; err != nil {
			return fmt.Errorf("failed to sum revenue: %w", err)
		}

		rate := CommissionRate(totalRevenue)
		commission := models.Commission{
			PartnerID:      sale.PartnerID,
			SaleID:         sale.ID,
			Amount:         sale.Amount * rate,
			CommissionType: commissionTypeStandard,
			Status:         CommissionStatusPending,
		}
		if err := tx.Create(&commission).Error; err != nil {
			return fmt.Errorf("failed to create commission: %w", err)
		}

		result = SaleConfirmation{Sale: sale, Commission: commission, Rate: rate}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Sale confirmed",
		zap.Uint("sale_id", saleID),
		zap.Float64("rate", result.Rate),
		zap.Float64("commission", result.Commission.Amount),
	)
	return &result, nil
}

// ListCommissions returns a partner's commissions, newest first
func (s *PartnerService) ListCommissions(ctx context.Context, partnerID uint) ([]models.Commission, error) {
	var commissions []models.Commission
	if err := s.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("created_at DESC, id DESC").
		Find(&commissions).Error; err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}
	return commissions, nil
}

// PayCommission marks a commission as paid
func (s *PartnerService) PayCommission(ctx context.Context, commissionID uint) (*models.Commission, error) {
	var commission models.Commission

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&commission, commissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("commission %d: %w", commissionID, ErrNotFound)
			}
			return fmt.Errorf("failed to get commission: %w", err)
		}
		if commission.Status == CommissionStatusPaid {
			return fmt.Errorf("commission already paid: %w", ErrConflict)
		}

		now := time.Now().UTC()
		commission.Status = CommissionStatusPaid
		commission.PaidAt = &now
		if err := tx.Save(&commission).Error; err != nil {
			return fmt.Errorf("failed to pay commission: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &commission, nil
}

// AddPaymentMethod stores a payment method. A new default method clears
// the default flag of the partner's other methods.
func (s *PartnerService) AddPaymentMethod(ctx context.Context, partnerID uint, in PaymentMethodInput) (*models.PaymentMethod, error) {
	if !paymentMethodTypes[in.MethodType] {
		return nil, fmt.Errorf("unknown method type %q: %w", in.MethodType, ErrInvalidInput)
	}
	details := datatypes.JSON(in.Details)
	if len(details) == 0 {
		details = datatypes.JSON("{}")
	}
	if !json.Valid(details) {
		return nil, fmt.Errorf("details must be valid JSON: %w", ErrInvalidInput)
	}

	method := models.PaymentMethod{
		PartnerID:  partnerID,
		MethodType: in.MethodType,
		Details:    details,
		IsDefault:  in.IsDefault,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findPartner(tx, partnerID); err != nil {
			return err
		}
		if method.IsDefault {
			if err := tx.Model(&models.PaymentMethod{}).
				Where("partner_id = ? AND is_default = ?", partnerID, true).
				Update("is_default", false).Error; err != nil {
				return fmt.Errorf("failed to clear default payment method: %w", err)
			}
		}
		if err := tx.Create(&method).Error; err != nil {
			return fmt.Errorf("failed to create payment method: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &method, nil
}

// ListPaymentMethods returns a partner's payment methods
func (s *PartnerService) ListPaymentMethods(ctx context.Context, partnerID uint) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	if err := s.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("id ASC").
		Find(&methods).Error; err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	return methods, nil
}

func findPartner(db *gorm.DB, id uint) (*models.Partner, error) {
	var partner models.Partner
	if err := db.First(&partner, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("partner %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	return &partner, nil
}
