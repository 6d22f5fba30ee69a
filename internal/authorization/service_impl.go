package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	RoleAdmin       = "admin"
	RoleManager     = "manager"
	RoleSalesperson = "salesperson"
	RoleSystem      = "system"
)

const (
	ObjectCommissionSync   = "commission_sync"
	ObjectCommissionLine   = "commission_line"
	ObjectCommissionReport = "commission_report"
	ObjectDiagnostics      = "commission_diagnostics"
	ObjectProduct          = "product"
)

const (
	ActionCommissionSyncRun  = "commission_sync.run"
	ActionCommissionSyncView = "commission_sync.view"

	ActionCommissionLineView = "commission_line.view"

	ActionCommissionReportView   = "commission_report.view"
	ActionCommissionReportExport = "commission_report.export"

	ActionDiagnosticsView = "commission_diagnostics.view"

	ActionProductView       = "product.view"
	ActionProductCreate     = "product.create"
	ActionProductRateUpdate = "product.rate_update"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, err := s.resolveActor(ctx, actor)
	if err != nil {
		s.logDenied(actor, object, action, err)
		return err
	}

	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.logDenied(actor, object, action, ErrForbidden)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, actor string) (string, string, error) {
	if actor == RoleSystem {
		return actor, roleSubject(RoleSystem), nil
	}
	if strings.HasPrefix(actor, "user:") {
		userID, err := snowflake.ParseString(strings.TrimPrefix(actor, "user:"))
		if err != nil || userID <= 0 {
			return "", "", ErrInvalidActor
		}
		role, err := s.roleForUser(ctx, userID)
		if err != nil {
			return "", "", err
		}
		return fmt.Sprintf("user:%s", userID.String()), roleSubject(role), nil
	}
	return "", "", ErrInvalidActor
}

func roleSubject(role string) string {
	return fmt.Sprintf("role:%s", strings.ToLower(strings.TrimSpace(role)))
}

func (s *ServiceImpl) roleForUser(ctx context.Context, userID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT role
		 FROM users
		 WHERE id = ? AND active = ?
		 LIMIT 1`,
		int64(userID),
		true,
	).Scan(&row).Error; err != nil {
		return "", err
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		return "", ErrForbidden
	}
	return role, nil
}

// ensureGrouping keeps exactly one role link per subject so role changes in
// the users table take effect on the next request.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		if _, err := s.enforcer.RemoveGroupingPolicy(params...); err != nil {
			return err
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func (s *ServiceImpl) logDenied(actor, object, action string, err error) {
	s.log.Warn("authorization.denied",
		zap.String("actor", actor),
		zap.String("object", object),
		zap.String("action", action),
		zap.Error(err),
	)
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	admin := roleSubject(RoleAdmin)
	manager := roleSubject(RoleManager)
	salesperson := roleSubject(RoleSalesperson)
	system := roleSubject(RoleSystem)

	policies := [][]string{
		{admin, ObjectCommissionSync, ActionCommissionSyncRun},
		{admin, ObjectCommissionSync, ActionCommissionSyncView},
		{admin, ObjectCommissionLine, ActionCommissionLineView},
		{admin, ObjectCommissionReport, ActionCommissionReportView},
		{admin, ObjectCommissionReport, ActionCommissionReportExport},
		{admin, ObjectDiagnostics, ActionDiagnosticsView},
		{admin, ObjectProduct, ActionProductView},
		{admin, ObjectProduct, ActionProductCreate},
		{admin, ObjectProduct, ActionProductRateUpdate},

		{manager, ObjectCommissionSync, ActionCommissionSyncView},
		{manager, ObjectCommissionLine, ActionCommissionLineView},
		{manager, ObjectCommissionReport, ActionCommissionReportView},
		{manager, ObjectCommissionReport, ActionCommissionReportExport},
		{manager, ObjectDiagnostics, ActionDiagnosticsView},
		{manager, ObjectProduct, ActionProductView},

		{salesperson, ObjectCommissionReport, ActionCommissionReportView},
		{salesperson, ObjectProduct, ActionProductView},

		// Unattended processes only run the reconciliation.
		{system, ObjectCommissionSync, ActionCommissionSyncRun},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
