package authz

import (
	_ "embed"
	"fmt"
	"strings"

	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectReward        = "reward"
	ObjectCateringMenu  = "catering_menu"
	ObjectCateringOrder = "catering_order"
	ObjectLoyaltyStats  = "loyalty_stats"
	ObjectLoyaltyLedger = "loyalty_ledger"
)

const ActionManage = "manage"

// NewEnforcer loads policies from the casbin_rule table and seeds the
// built-in ones.
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
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{"role:admin", ObjectReward, ActionManage},
		{"role:admin", ObjectCateringMenu, ActionManage},
		{"role:admin", ObjectCateringOrder, ActionManage},
		{"role:admin", ObjectLoyaltyStats, ActionManage},
		{"role:admin", ObjectLoyaltyLedger, ActionManage},
	}
	for _, p := range policies {
		// AddPolicy reports false without an error when the rule already exists
		if _, err := enforcer.AddPolicy(p); err != nil {
			return err
		}
	}
	return nil
}

type Authorizer struct {
	enforcer *casbin.SyncedEnforcer
	log      *zap.Logger
}

func NewAuthorizer(enforcer *casbin.SyncedEnforcer, log *zap.Logger) *Authorizer {
	return &Authorizer{enforcer: enforcer, log: log.Named("authz")}
}

// Authorize returns ErrForbidden unless role may perform action on object.
func (a *Authorizer) Authorize(role, object, action string) error {
	role = strings.TrimSpace(role)
	if role == "" {
		return fmt.Errorf("%w: no role", apperr.ErrForbidden)
	}
	allowed, err := a.enforcer.Enforce("role:"+role, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		a.log.Info("authorization denied",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return fmt.Errorf("%w: %s cannot %s %s", apperr.ErrForbidden, role, action, object)
	}
	return nil
}
