// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/amirphl/Seiryu-CRM/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// LeadRepository defines operations for leads
type LeadRepository interface {
	Repository[models.Lead, models.LeadFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Lead, error)
	ByReferenceNo(ctx context.Context, referenceNo string) (*models.Lead, error)
	ExistsByReferenceNo(ctx context.Context, referenceNo string) (bool, error)
	Update(ctx context.Context, lead *models.Lead) error
	Delete(ctx context.Context, id uint) error
	CountActiveByAssignees(ctx context.Context, userIDs []uint) (map[uint]int64, error)
	CountByStatus(ctx context.Context, filter models.LeadFilter) (map[string]int64, error)
	CountBySource(ctx context.Context, filter models.LeadFilter) (map[string]int64, error)
	CountByDay(ctx context.Context, filter models.LeadFilter, days int) (map[string]int64, error)
}

// UserRepository defines operations for the user directory
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByUserName(ctx context.Context, userName string) (*models.User, error)
	ByIDs(ctx context.Context, ids []uint) ([]*models.User, error)
	ListCounselorsByCenter(ctx context.Context, centerName string) ([]*models.User, error)
	DistinctCenterNames(ctx context.Context) ([]string, error)
}

// RoutingRuleRepository defines operations for center routing rules
type RoutingRuleRepository interface {
	Repository[models.RoutingRule, models.RoutingRuleFilter]
	ActiveByCenter(ctx context.Context, centerName string) (*models.RoutingRule, error)
	DeactivateForCenter(ctx context.Context, centerName string) error
	Update(ctx context.Context, rule *models.RoutingRule) error
	CompareAndSetLastAssigned(ctx context.Context, ruleID uint, prev *uint, next uint) (bool, error)
}

// LeadEventRepository defines operations for the append-only lead event trail
type LeadEventRepository interface {
	Repository[models.LeadEvent, models.LeadEventFilter]
	ListByLead(ctx context.Context, leadID uint, limit, offset int) ([]*models.LeadEvent, error)
}

// FieldSettingRepository defines operations for lead form field settings
type FieldSettingRepository interface {
	Repository[models.LeadFieldSetting, models.LeadFieldSettingFilter]
	All(ctx context.Context) ([]*models.LeadFieldSetting, error)
	Upsert(ctx context.Context, setting *models.LeadFieldSetting) error
}
