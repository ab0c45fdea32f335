// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"

	"github.com/amirphl/Seiryu-CRM/app/dto"
	"github.com/amirphl/Seiryu-CRM/models"
	"github.com/amirphl/Seiryu-CRM/repository"
	"gorm.io/gorm"
)

// RoutingRuleFlow manages per-center routing policies
type RoutingRuleFlow interface {
	Upsert(ctx context.Context, req *dto.UpsertRoutingRuleRequest, actor Actor) (*dto.UpsertRoutingRuleResponse, error)
	Get(ctx context.Context, centerName string, actor Actor) (*dto.GetRoutingRuleResponse, error)
	Deactivate(ctx context.Context, centerName string, actor Actor) (*dto.DeactivateRoutingRuleResponse, error)
}

// RoutingRuleFlowImpl implements RoutingRuleFlow
type RoutingRuleFlowImpl struct {
	ruleRepo repository.RoutingRuleRepository
	routing  LeadRoutingFlow
	db       *gorm.DB
}

// NewRoutingRuleFlow creates a new routing rule flow
func NewRoutingRuleFlow(ruleRepo repository.RoutingRuleRepository, routing LeadRoutingFlow, db *gorm.DB) RoutingRuleFlow {
	return &RoutingRuleFlowImpl{
		ruleRepo: ruleRepo,
		routing:  routing,
		db:       db,
	}
}

func (f *RoutingRuleFlowImpl) inTx(ctx context.Context, fn func(context.Context) error) error {
	if f.db == nil {
		return fn(ctx)
	}
	return repository.WithTransaction(ctx, f.db, fn)
}

// resolveCenter returns the center the actor may manage rules for.
// Super admins manage any center; managers only their own.
func resolveCenter(requested string, actor Actor) (string, error) {
	switch {
	case actor.IsSuperAdmin():
		if requested == "" {
			return "", ErrCenterNameRequired
		}
		return requested, nil
	case actor.Role == models.RoleCenterManager:
		if actor.CenterName == "" {
			return "", ErrCenterRequired
		}
		if requested != "" && requested != actor.CenterName {
			return "", ErrCenterMismatch
		}
		return actor.CenterName, nil
	default:
		return "", ErrForbidden
	}
}

// Upsert replaces the center's active rule: any prior active rule is deactivated
// and the new one stored in the same transaction.
func (f *RoutingRuleFlowImpl) Upsert(ctx context.Context, req *dto.UpsertRoutingRuleRequest, actor Actor) (*dto.UpsertRoutingRuleResponse, error) {
	centerName, err := resolveCenter(req.CenterName, actor)
	if err != nil {
		return nil, NewBusinessError("ROUTING_RULE_FORBIDDEN", "not allowed to manage routing rules for this center", err)
	}

	ruleType := models.RuleType(req.RuleType)
	if !ruleType.Valid() {
		return nil, NewBusinessErrorf("INVALID_RULE_TYPE", "unknown rule type %q", ErrInvalidRuleType, req.RuleType)
	}

	rule := &models.RoutingRule{
		CenterName: centerName,
		RuleType:   ruleType,
		Config: models.RoutingConfig{
			MaxActiveLeadsPerCounselor: req.MaxActiveLeads,
			InterestToCounselors:       req.InterestPools,
			LanguageToCounselors:       req.LanguagePools,
		},
		ActiveUntil: req.ActiveUntil,
		IsActive:    true,
		CreatedBy:   &actor.ID,
	}

	err = f.inTx(ctx, func(txCtx context.Context) error {
		if err := f.ruleRepo.DeactivateForCenter(txCtx, centerName); err != nil {
			return err
		}
		return f.ruleRepo.Save(txCtx, rule)
	})
	if err != nil {
		return nil, NewBusinessError("ROUTING_RULE_FAILED", "failed to store routing rule", err)
	}

	return &dto.UpsertRoutingRuleResponse{
		Message: "Routing rule saved successfully",
		Rule:    ToRoutingRuleDTO(*rule),
	}, nil
}

// Get returns the center's active rule, honoring lazy expiry
func (f *RoutingRuleFlowImpl) Get(ctx context.Context, centerName string, actor Actor) (*dto.GetRoutingRuleResponse, error) {
	centerName, err := resolveCenter(centerName, actor)
	if err != nil {
		return nil, NewBusinessError("ROUTING_RULE_FORBIDDEN", "not allowed to view routing rules for this center", err)
	}

	rule, err := f.routing.ActiveRule(ctx, centerName)
	if err != nil {
		return nil, NewBusinessError("ROUTING_RULE_FAILED", "failed to load routing rule", err)
	}

	resp := &dto.GetRoutingRuleResponse{Message: "Routing rule retrieved successfully"}
	if rule != nil {
		d := ToRoutingRuleDTO(*rule)
		resp.Rule = &d
	} else {
		resp.Message = "No active routing rule for this center"
	}
	return resp, nil
}

// Deactivate turns off the center's active rule; new leads fall back to the creator
func (f *RoutingRuleFlowImpl) Deactivate(ctx context.Context, centerName string, actor Actor) (*dto.DeactivateRoutingRuleResponse, error) {
	centerName, err := resolveCenter(centerName, actor)
	if err != nil {
		return nil, NewBusinessError("ROUTING_RULE_FORBIDDEN", "not allowed to manage routing rules for this center", err)
	}

	if err := f.ruleRepo.DeactivateForCenter(ctx, centerName); err != nil {
		return nil, NewBusinessError("ROUTING_RULE_FAILED", "failed to deactivate routing rule", err)
	}

	return &dto.DeactivateRoutingRuleResponse{
		Message:    "Routing rule deactivated",
		CenterName: centerName,
	}, nil
}
