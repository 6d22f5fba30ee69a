package service

import (
	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	accounting "github.com/smallbiznis/salescommission/internal/accounting/domain"
	"github.com/smallbiznis/salescommission/internal/clock"
	"github.com/smallbiznis/salescommission/internal/commission/domain"
	"github.com/smallbiznis/salescommission/internal/config"
	"github.com/smallbiznis/salescommission/internal/lock"
	"github.com/smallbiznis/salescommission/internal/observability/metrics"
	"github.com/smallbiznis/salescommission/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const syncLockKey = "salescommission:commission:sync"

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	Accounting accounting.Repository
	Config     config.Config
	Policy     *config.CommissionConfigHolder
	Guard      lock.Guard
	Clock      clock.Clock      `optional:"true"`
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	accounting accounting.Repository
	runs       repository.Repository[domain.SyncRun]
	cfg        config.Config
	policy     *config.CommissionConfigHolder
	guard      lock.Guard
	clock      clock.Clock
	metrics    *metrics.Metrics
	syncStats  *metrics.CommissionMetrics
	validate   *validator.Validate
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	guard := p.Guard
	if guard == nil {
		guard = lock.NewLocalGuard()
	}
	policy := p.Policy
	if policy == nil {
		policy = config.NewStaticCommissionConfigHolder(config.DefaultCommissionConfig())
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("commission.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		accounting: p.Accounting,
		runs:       repository.ProvideStore[domain.SyncRun](p.DB),
		cfg:        p.Config,
		policy:     policy,
		guard:      guard,
		clock:      clk,
		metrics:    p.Metrics,
		syncStats:  metrics.Commission(),
		validate:   validator.New(),
	}
}
