// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/amirphl/Seiryu-CRM/models"
	"github.com/amirphl/Seiryu-CRM/repository"
	"github.com/amirphl/Seiryu-CRM/utils"
)

// cursorRetries bounds how many times a pick is recomputed after losing the
// cursor advance to a concurrent assignment
const cursorRetries = 3

// RoutingInput carries the lead attributes that skill matching inspects
type RoutingInput struct {
	Program        *string
	Specialization *string
	MotherTongue   *string
}

// LeadRoutingFlow evaluates a center's routing policy to pick an assignee for a new lead
type LeadRoutingFlow interface {
	ActiveRule(ctx context.Context, centerName string) (*models.RoutingRule, error)
	PickAssignee(ctx context.Context, rule *models.RoutingRule, in RoutingInput) (*models.User, error)
}

// LeadRoutingFlowImpl implements LeadRoutingFlow
type LeadRoutingFlowImpl struct {
	ruleRepo repository.RoutingRuleRepository
	userRepo repository.UserRepository
	leadRepo repository.LeadRepository
}

// NewLeadRoutingFlow creates a new lead routing flow
func NewLeadRoutingFlow(ruleRepo repository.RoutingRuleRepository, userRepo repository.UserRepository, leadRepo repository.LeadRepository) LeadRoutingFlow {
	return &LeadRoutingFlowImpl{
		ruleRepo: ruleRepo,
		userRepo: userRepo,
		leadRepo: leadRepo,
	}
}

// ActiveRule returns the center's active routing rule, or nil when none applies.
// A rule whose activation window has passed is deactivated on first read.
func (f *LeadRoutingFlowImpl) ActiveRule(ctx context.Context, centerName string) (*models.RoutingRule, error) {
	if centerName == "" {
		return nil, nil
	}

	rule, err := f.ruleRepo.ActiveByCenter(ctx, centerName)
	if err != nil {
		return nil, fmt.Errorf("failed to load active routing rule: %w", err)
	}
	if rule == nil {
		return nil, nil
	}

	if rule.Expired(utils.UTCNow()) {
		rule.IsActive = false
		if err := f.ruleRepo.Update(ctx, rule); err != nil {
			return nil, fmt.Errorf("failed to expire routing rule %d: %w", rule.ID, err)
		}
		return nil, nil
	}

	return rule, nil
}

// PickAssignee selects the counselor the rule routes a new lead to, or nil when
// the center has no eligible counselor. The round-robin cursor is advanced with a
// compare-and-set so concurrent creates never hand two leads to the same turn.
func (f *LeadRoutingFlowImpl) PickAssignee(ctx context.Context, rule *models.RoutingRule, in RoutingInput) (*models.User, error) {
	if rule == nil {
		return nil, nil
	}

	for attempt := 0; attempt < cursorRetries; attempt++ {
		chosen, prev, err := f.pickOnce(ctx, rule, in)
		if err != nil || chosen == nil {
			return nil, err
		}

		moved, err := f.ruleRepo.CompareAndSetLastAssigned(ctx, rule.ID, prev, chosen.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to advance routing cursor: %w", err)
		}
		if moved {
			rule.LastAssignedUserID = &chosen.ID
			return chosen, nil
		}

		// Lost the race; reload the cursor and recompute
		fresh, err := f.ruleRepo.ByID(ctx, rule.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload routing rule %d: %w", rule.ID, err)
		}
		if fresh == nil {
			return nil, ErrRuleNotFound
		}
		rule = fresh
	}

	// Give up on fairness rather than on assignment
	log.Printf("routing: cursor contention on rule %d, assigning without cursor advance", rule.ID)
	chosen, _, err := f.pickOnce(ctx, rule, in)
	return chosen, err
}

// pickOnce computes a single routing decision and returns the chosen counselor
// along with the cursor value the decision was based on
func (f *LeadRoutingFlowImpl) pickOnce(ctx context.Context, rule *models.RoutingRule, in RoutingInput) (*models.User, *uint, error) {
	counselors, err := f.userRepo.ListCounselorsByCenter(ctx, rule.CenterName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list counselors: %w", err)
	}
	if len(counselors) == 0 {
		return nil, nil, nil
	}

	var eligible []*models.User
	for _, c := range counselors {
		if c.IsEligibleForRouting() {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return nil, nil, nil
	}

	ids := make([]uint, len(eligible))
	for i, c := range eligible {
		ids[i] = c.ID
	}
	counts, err := f.leadRepo.CountActiveByAssignees(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count counselor loads: %w", err)
	}

	maxActive := rule.Config.MaxActive()
	var underCap []*models.User
	for _, c := range eligible {
		if counts[c.ID] < int64(maxActive) {
			underCap = append(underCap, c)
		}
	}

	// Everyone at capacity: the cap is soft, route to the least loaded
	if len(underCap) == 0 {
		return leastLoaded(eligible, counts), rule.LastAssignedUserID, nil
	}

	if rule.RuleType == models.RuleTypeSkillMatch {
		pool := f.skillPool(rule, in)
		var matched []*models.User
		for _, c := range underCap {
			if _, ok := pool[c.ID]; ok {
				matched = append(matched, c)
			}
		}
		if len(matched) > 0 {
			return leastLoaded(matched, counts), rule.LastAssignedUserID, nil
		}
		// No skill match: fall through to round-robin over the under-cap set
	}

	sort.Slice(underCap, func(i, j int) bool { return underCap[i].ID < underCap[j].ID })

	idx := -1
	if rule.LastAssignedUserID != nil {
		for i, c := range underCap {
			if c.ID == *rule.LastAssignedUserID {
				idx = i
				break
			}
		}
	}
	return underCap[(idx+1)%len(underCap)], rule.LastAssignedUserID, nil
}

// skillPool collects the counselor IDs configured for the lead's interest and language
func (f *LeadRoutingFlowImpl) skillPool(rule *models.RoutingRule, in RoutingInput) map[uint]struct{} {
	pool := make(map[uint]struct{})

	interest := strings.TrimSpace(derefOr(in.Program, derefOr(in.Specialization, "")))
	if interest != "" {
		for _, id := range rule.Config.InterestToCounselors[interest] {
			pool[id] = struct{}{}
		}
	}

	language := strings.TrimSpace(derefOr(in.MotherTongue, ""))
	if language != "" {
		for _, id := range rule.Config.LanguageToCounselors[language] {
			pool[id] = struct{}{}
		}
	}

	return pool
}

// leastLoaded returns the user with the fewest open leads, ties broken by lowest ID
func leastLoaded(users []*models.User, counts map[uint]int64) *models.User {
	best := users[0]
	for _, c := range users[1:] {
		if counts[c.ID] < counts[best.ID] || (counts[c.ID] == counts[best.ID] && c.ID < best.ID) {
			best = c
		}
	}
	return best
}

func derefOr(s *string, fallback string) string {
	if s != nil && *s != "" {
		return *s
	}
	return fallback
}
