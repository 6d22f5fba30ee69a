package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/salescommission/internal/clock"
	"github.com/smallbiznis/salescommission/internal/observability/metrics"
	"github.com/smallbiznis/salescommission/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock      `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	genID    *snowflake.Node
	clock    clock.Clock
	metrics  *metrics.Metrics
	validate *validator.Validate
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("product.service"),
		repo:     p.Repo,
		genID:    p.GenID,
		clock:    clk,
		metrics:  p.Metrics,
		validate: newValidator(),
	}
}

var maxCommissionRate = decimal.NewFromInt(100)

type rateInput struct {
	Rate string `validate:"required,percent"`
}

// validatePercent accepts decimal strings in the closed range [0, 100],
// compared exactly.
func validatePercent(fl validator.FieldLevel) bool {
	rate, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return !rate.IsNegative() && rate.LessThanOrEqual(maxCommissionRate)
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("percent", validatePercent)
	return v
}

// ParseCommissionRate converts a percentage string into a decimal in [0, 100].
func (s *Service) ParseCommissionRate(value string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(value)
	if err := s.validate.Struct(rateInput{Rate: raw}); err != nil {
		return decimal.Zero, domain.InvalidCommissionRateError(value)
	}
	return decimal.RequireFromString(raw), nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	filter := domain.ListRequest{
		Name:    strings.TrimSpace(req.Name),
		Active:  req.Active,
		SortBy:  strings.TrimSpace(req.SortBy),
		OrderBy: strings.TrimSpace(req.OrderBy),
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, s.toResponse(&item))
	}

	return resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	rate := decimal.Zero
	if req.CommissionRate != nil {
		parsed, err := s.ParseCommissionRate(*req.CommissionRate)
		if err != nil {
			return nil, err
		}
		rate = parsed
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now().UTC()
	p := &domain.Product{
		ID:             s.genID.Generate().Int64(),
		Code:           code,
		Name:           name,
		CommissionRate: rate,
		Active:         active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, s.db, p); err != nil {
		return nil, err
	}
	resp := s.toResponse(p)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, productID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) SetCommissionRate(ctx context.Context, req domain.SetCommissionRateRequest) (*domain.Response, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(req.ProductID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	rate, err := s.ParseCommissionRate(req.CommissionRate)
	if err != nil {
		s.log.Info("product.commission_rate.rejected",
			zap.Int64("product_id", productID.Int64()),
			zap.String("value", req.CommissionRate),
		)
		return nil, err
	}

	if err := s.repo.UpdateCommissionRate(ctx, s.db, productID.Int64(), rate); err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, productID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	s.metrics.RecordRateUpdate(ctx)
	s.log.Info("product.commission_rate.updated",
		zap.Int64("product_id", item.ID),
		zap.String("commission_rate", rate.String()),
	)

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) toResponse(p *domain.Product) domain.Response {
	return domain.Response{
		ID:             snowflake.ID(p.ID).String(),
		Code:           p.Code,
		Name:           p.Name,
		CommissionRate: p.CommissionRate.StringFixed(2),
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
