package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/Seiryu-CRM/app/dto"
	"github.com/amirphl/Seiryu-CRM/utils"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The counters are process-wide, so every check compares against a snapshot
// taken before the operation instead of an absolute value.
func TestLeadCounters(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(1, "manager", "center-manager", "Delhi Center", "online")
	fixture.addUser(2, "c2", "counselor", "Delhi Center", "online")
	roundRobinRule(fixture, "Delhi Center")
	manager := managerActor(1, "Delhi Center")

	createdBefore := testutil.ToFloat64(leadsCreatedTotal.WithLabelValues("api"))
	routedBefore := testutil.ToFloat64(leadsRoutedTotal.WithLabelValues("round_robin"))

	created, err := fixture.flow.Create(context.Background(), validCreateRequest(), manager, nil)
	require.NoError(t, err)

	assert.Equal(t, createdBefore+1, testutil.ToFloat64(leadsCreatedTotal.WithLabelValues("api")))
	assert.Equal(t, routedBefore+1, testutil.ToFloat64(leadsRoutedTotal.WithLabelValues("round_robin")),
		"rule-routed creations count toward the routing counter")

	t.Run("manual assignment", func(t *testing.T) {
		assignedBefore := testutil.ToFloat64(leadsAssignedTotal)
		_, err := fixture.flow.Assign(context.Background(), created.Lead.ID, &dto.AssignLeadRequest{AssigneeID: 2}, manager)
		require.NoError(t, err)
		assert.Equal(t, assignedBefore+1, testutil.ToFloat64(leadsAssignedTotal))
	})

	t.Run("failed creation counts nothing", func(t *testing.T) {
		createdBefore := testutil.ToFloat64(leadsCreatedTotal.WithLabelValues("api"))
		bad := validCreateRequest()
		bad.FirstName = ""
		_, err := fixture.flow.Create(context.Background(), bad, manager, nil)
		require.Error(t, err)
		assert.Equal(t, createdBefore, testutil.ToFloat64(leadsCreatedTotal.WithLabelValues("api")))
	})
}

func TestLeadCreationSourceLabel(t *testing.T) {
	tests := []struct {
		name        string
		createdFrom *string
		want        string
	}{
		{"nil defaults to api", nil, "api"},
		{"empty defaults to api", utils.ToPtr(""), "api"},
		{"import passes through", utils.ToPtr("import"), "import"},
		{"open form passes through", utils.ToPtr("open"), "open"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, leadCreationSource(tt.createdFrom))
		})
	}
}
