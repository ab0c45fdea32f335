package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/Seiryu-CRM/app/dto"
	"github.com/amirphl/Seiryu-CRM/models"
	"github.com/amirphl/Seiryu-CRM/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuleFlowFixture() (*leadFlowFixture, RoutingRuleFlow) {
	fixture := newLeadFlowFixture()
	return fixture, NewRoutingRuleFlow(fixture.ruleRepo, fixture.routing, nil)
}

func TestUpsertRoutingRule(t *testing.T) {
	fixture, flow := newRuleFlowFixture()
	manager := managerActor(1, "Delhi Center")

	maxActive := 10
	resp, err := flow.Upsert(context.Background(), &dto.UpsertRoutingRuleRequest{
		RuleType:       "round_robin",
		MaxActiveLeads: &maxActive,
	}, manager)
	require.NoError(t, err)
	assert.Equal(t, "Delhi Center", resp.Rule.CenterName)
	assert.Equal(t, "round_robin", resp.Rule.RuleType)
	assert.Equal(t, 10, resp.Rule.MaxActiveLeads)
	assert.True(t, resp.Rule.IsActive)

	t.Run("replacing deactivates the previous rule", func(t *testing.T) {
		firstID := resp.Rule.ID
		second, err := flow.Upsert(context.Background(), &dto.UpsertRoutingRuleRequest{
			RuleType:      "skill_match",
			InterestPools: map[string][]uint{"MBA": {2}},
		}, manager)
		require.NoError(t, err)
		assert.NotEqual(t, firstID, second.Rule.ID)

		old, err := fixture.ruleRepo.ByID(context.Background(), firstID)
		require.NoError(t, err)
		require.NotNil(t, old)
		assert.False(t, old.IsActive)

		active, err := fixture.ruleRepo.ActiveByCenter(context.Background(), "Delhi Center")
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, second.Rule.ID, active.ID)
	})

	t.Run("invalid rule type", func(t *testing.T) {
		_, err := flow.Upsert(context.Background(), &dto.UpsertRoutingRuleRequest{RuleType: "random"}, manager)
		assertBusinessCode(t, err, "INVALID_RULE_TYPE")
	})

	t.Run("manager may not touch another center", func(t *testing.T) {
		_, err := flow.Upsert(context.Background(), &dto.UpsertRoutingRuleRequest{
			CenterName: "Mumbai",
			RuleType:   "round_robin",
		}, manager)
		assertBusinessCode(t, err, "ROUTING_RULE_FORBIDDEN")
		assert.True(t, IsCenterMismatch(err))
	})

	t.Run("super admin must name a center", func(t *testing.T) {
		_, err := flow.Upsert(context.Background(), &dto.UpsertRoutingRuleRequest{RuleType: "round_robin"}, superAdminActor(9))
		assertBusinessCode(t, err, "ROUTING_RULE_FORBIDDEN")
		assert.True(t, IsCenterNameRequired(err))
	})

	t.Run("counselor is rejected", func(t *testing.T) {
		_, err := flow.Upsert(context.Background(), &dto.UpsertRoutingRuleRequest{RuleType: "round_robin"}, counselorActor(5, "Delhi Center"))
		assertBusinessCode(t, err, "ROUTING_RULE_FORBIDDEN")
	})
}

func TestGetRoutingRule(t *testing.T) {
	fixture, flow := newRuleFlowFixture()
	manager := managerActor(1, "Delhi Center")

	t.Run("no rule yet", func(t *testing.T) {
		resp, err := flow.Get(context.Background(), "", manager)
		require.NoError(t, err)
		assert.Nil(t, resp.Rule)
		assert.Equal(t, "No active routing rule for this center", resp.Message)
	})

	t.Run("returns the active rule", func(t *testing.T) {
		stored := roundRobinRule(fixture, "Delhi Center")
		resp, err := flow.Get(context.Background(), "", manager)
		require.NoError(t, err)
		require.NotNil(t, resp.Rule)
		assert.Equal(t, stored.ID, resp.Rule.ID)
	})

	t.Run("expired rule reads as absent", func(t *testing.T) {
		past := utils.UTCNow().Add(-time.Minute)
		fixture.ruleRepo.add(models.RoutingRule{
			CenterName:  "Mumbai",
			RuleType:    models.RuleTypeRoundRobin,
			IsActive:    true,
			ActiveUntil: &past,
		})
		resp, err := flow.Get(context.Background(), "Mumbai", superAdminActor(9))
		require.NoError(t, err)
		assert.Nil(t, resp.Rule)
	})
}

func TestDeactivateRoutingRule(t *testing.T) {
	fixture, flow := newRuleFlowFixture()
	manager := managerActor(1, "Delhi Center")
	stored := roundRobinRule(fixture, "Delhi Center")

	resp, err := flow.Deactivate(context.Background(), "", manager)
	require.NoError(t, err)
	assert.Equal(t, "Delhi Center", resp.CenterName)

	after, err := fixture.ruleRepo.ByID(context.Background(), stored.ID)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.False(t, after.IsActive)

	t.Run("counselor is rejected", func(t *testing.T) {
		_, err := flow.Deactivate(context.Background(), "", counselorActor(5, "Delhi Center"))
		assertBusinessCode(t, err, "ROUTING_RULE_FORBIDDEN")
	})
}
