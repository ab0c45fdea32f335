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

func counselorActor(id uint, centerName string) Actor {
	return Actor{ID: id, Role: models.RoleCounselor, CenterName: centerName}
}

func managerActor(id uint, centerName string) Actor {
	return Actor{ID: id, Role: models.RoleCenterManager, CenterName: centerName}
}

func superAdminActor(id uint) Actor {
	return Actor{ID: id, Role: models.RoleSuperAdmin, IsAdmin: true}
}

func validCreateRequest() *dto.CreateLeadRequest {
	return &dto.CreateLeadRequest{
		FirstName:    "Asha",
		LastName:     "Verma",
		Email:        "asha.verma@example.com",
		MobileNumber: "+919876543210",
	}
}

func assertBusinessCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var be *BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, code, be.Code)
}

func TestCreateLead(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(10, "c10", "counselor", "Delhi Center", "online")
	actor := counselorActor(10, "Delhi Center")

	resp, err := fixture.flow.Create(context.Background(), validCreateRequest(), actor, nil)
	require.NoError(t, err)

	lead := resp.Lead
	assert.Regexp(t, `^DC[0-9]{10}$`, lead.ReferenceNo)
	assert.Equal(t, "New", lead.Status)
	assert.Equal(t, 10, lead.ScorePercent)
	require.NotNil(t, lead.AssignedUserID)
	assert.Equal(t, uint(10), *lead.AssignedUserID, "counselor-created leads stay with the creator")
	require.NotNil(t, lead.WhatsappNumber)
	assert.Equal(t, "+919876543210", *lead.WhatsappNumber, "whatsapp defaults to the mobile number")
	require.NotNil(t, lead.CenterName)
	assert.Equal(t, "Delhi Center", *lead.CenterName)
	require.NotNil(t, lead.CounselorName)
	assert.Equal(t, "Test c10", *lead.CounselorName)

	// Creation writes a create event plus an assignment event
	assert.Len(t, fixture.eventRepo.byAction(lead.ID, models.LeadActionCreate), 1)
	assert.Len(t, fixture.eventRepo.byAction(lead.ID, models.LeadActionAssignment), 1)
	assert.Equal(t, 1, fixture.realtime.created)
}

func TestCreateLeadValidation(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(10, "c10", "counselor", "Delhi Center", "online")
	actor := counselorActor(10, "Delhi Center")

	tests := []struct {
		name   string
		mutate func(*dto.CreateLeadRequest)
		code   string
	}{
		{"missing first name", func(r *dto.CreateLeadRequest) { r.FirstName = "  " }, "FIRST_NAME_REQUIRED"},
		{"missing last name", func(r *dto.CreateLeadRequest) { r.LastName = "" }, "LAST_NAME_REQUIRED"},
		{"missing email", func(r *dto.CreateLeadRequest) { r.Email = "" }, "EMAIL_REQUIRED"},
		{"missing mobile", func(r *dto.CreateLeadRequest) { r.MobileNumber = "" }, "MOBILE_NUMBER_REQUIRED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(req)
			_, err := fixture.flow.Create(context.Background(), req, actor, nil)
			assertBusinessCode(t, err, tt.code)
		})
	}

	t.Run("super admin may not create", func(t *testing.T) {
		_, err := fixture.flow.Create(context.Background(), validCreateRequest(), superAdminActor(1), nil)
		assertBusinessCode(t, err, "LEAD_CREATE_FORBIDDEN")
	})
}

func TestCreateLeadStatusScore(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(10, "c10", "counselor", "Delhi Center", "online")
	actor := counselorActor(10, "Delhi Center")

	req := validCreateRequest()
	req.Status = utils.ToPtr("Hot")
	resp, err := fixture.flow.Create(context.Background(), req, actor, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hot", resp.Lead.Status)
	assert.Equal(t, 70, resp.Lead.ScorePercent)

	t.Run("action score overrides a lower status score", func(t *testing.T) {
		req := validCreateRequest()
		req.Email = "second@example.com"
		req.Status = utils.ToPtr("Cold")
		req.ActionScore = utils.ToPtr(45)
		resp, err := fixture.flow.Create(context.Background(), req, actor, nil)
		require.NoError(t, err)
		assert.Equal(t, 45, resp.Lead.ScorePercent)
	})
}

func TestCreateLeadFollowUpWindow(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(10, "c10", "counselor", "Delhi Center", "online")
	actor := counselorActor(10, "Delhi Center")

	t.Run("within window", func(t *testing.T) {
		req := validCreateRequest()
		req.Status = utils.ToPtr("Hot")
		req.NextFollowUpAt = utils.ToPtr(utils.UTCNow().Add(48 * time.Hour))
		_, err := fixture.flow.Create(context.Background(), req, actor, nil)
		require.NoError(t, err)
	})

	t.Run("beyond the status window", func(t *testing.T) {
		req := validCreateRequest()
		req.Email = "late@example.com"
		req.Status = utils.ToPtr("Hot")
		req.NextFollowUpAt = utils.ToPtr(utils.UTCNow().Add(5 * 24 * time.Hour))
		_, err := fixture.flow.Create(context.Background(), req, actor, nil)
		assertBusinessCode(t, err, "FOLLOW_UP_INVALID")
	})

	t.Run("in the past", func(t *testing.T) {
		req := validCreateRequest()
		req.Email = "past@example.com"
		req.NextFollowUpAt = utils.ToPtr(utils.UTCNow().Add(-time.Hour))
		_, err := fixture.flow.Create(context.Background(), req, actor, nil)
		assertBusinessCode(t, err, "FOLLOW_UP_INVALID")
	})

	t.Run("unbounded status accepts far dates", func(t *testing.T) {
		req := validCreateRequest()
		req.Email = "far@example.com"
		req.NextFollowUpAt = utils.ToPtr(utils.UTCNow().Add(365 * 24 * time.Hour))
		_, err := fixture.flow.Create(context.Background(), req, actor, nil)
		require.NoError(t, err)
	})
}

func TestCreateLeadManagerRouting(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(1, "manager", "center-manager", "Delhi Center", "online")
	fixture.addUser(2, "c2", "counselor", "Delhi Center", "online")
	fixture.addUser(3, "c3", "counselor", "Delhi Center", "online")
	roundRobinRule(fixture, "Delhi Center")
	actor := managerActor(1, "Delhi Center")

	first, err := fixture.flow.Create(context.Background(), validCreateRequest(), actor, nil)
	require.NoError(t, err)
	require.NotNil(t, first.Lead.AssignedUserID)
	assert.Equal(t, uint(2), *first.Lead.AssignedUserID)

	second := validCreateRequest()
	second.Email = "second@example.com"
	resp, err := fixture.flow.Create(context.Background(), second, actor, nil)
	require.NoError(t, err)
	require.NotNil(t, resp.Lead.AssignedUserID)
	assert.Equal(t, uint(3), *resp.Lead.AssignedUserID, "round robin advances to the next counselor")

	t.Run("without a rule the manager keeps the lead", func(t *testing.T) {
		bare := newLeadFlowFixture()
		bare.addUser(1, "manager", "center-manager", "Delhi Center", "online")
		resp, err := bare.flow.Create(context.Background(), validCreateRequest(), managerActor(1, "Delhi Center"), nil)
		require.NoError(t, err)
		require.NotNil(t, resp.Lead.AssignedUserID)
		assert.Equal(t, uint(1), *resp.Lead.AssignedUserID)
	})
}

func TestUpdateLeadScoreMonotonic(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(10, "c10", "counselor", "Delhi Center", "online")
	actor := counselorActor(10, "Delhi Center")

	req := validCreateRequest()
	req.Status = utils.ToPtr("Hot")
	created, err := fixture.flow.Create(context.Background(), req, actor, nil)
	require.NoError(t, err)
	require.Equal(t, 70, created.Lead.ScorePercent)

	t.Run("downgrade keeps the score", func(t *testing.T) {
		resp, err := fixture.flow.Update(context.Background(), created.Lead.ID, &dto.UpdateLeadRequest{
			Status: utils.ToPtr("Cold"),
		}, actor)
		require.NoError(t, err)
		assert.Equal(t, "Cold", resp.Lead.Status)
		assert.Equal(t, 70, resp.Lead.ScorePercent, "score never drops on a status downgrade")
		assert.Empty(t, fixture.eventRepo.byAction(created.Lead.ID, models.LeadActionScoreChange))
		assert.Len(t, fixture.eventRepo.byAction(created.Lead.ID, models.LeadActionStatusChange), 1)
	})

	t.Run("upgrade raises the score and records it", func(t *testing.T) {
		resp, err := fixture.flow.Update(context.Background(), created.Lead.ID, &dto.UpdateLeadRequest{
			Status: utils.ToPtr("Closed - Won"),
		}, actor)
		require.NoError(t, err)
		assert.Equal(t, 100, resp.Lead.ScorePercent)

		scoreEvents := fixture.eventRepo.byAction(created.Lead.ID, models.LeadActionScoreChange)
		require.Len(t, scoreEvents, 1)
		require.NotNil(t, scoreEvents[0].FromValue)
		require.NotNil(t, scoreEvents[0].ToValue)
		assert.Equal(t, 70, *scoreEvents[0].FromValue.ScorePercent)
		assert.Equal(t, 100, *scoreEvents[0].ToValue.ScorePercent)
	})
}

func TestUpdateLeadCounselorRestrictions(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(10, "c10", "counselor", "Delhi Center", "online")
	actor := counselorActor(10, "Delhi Center")

	created, err := fixture.flow.Create(context.Background(), validCreateRequest(), actor, nil)
	require.NoError(t, err)

	resp, err := fixture.flow.Update(context.Background(), created.Lead.ID, &dto.UpdateLeadRequest{
		FirstName:   utils.ToPtr("Hacked"),
		Status:      utils.ToPtr("Warm"),
		SubStatus:   utils.ToPtr("Call back"),
		Description: utils.ToPtr("spoke on phone"),
	}, actor)
	require.NoError(t, err)

	assert.Equal(t, "Asha", resp.Lead.FirstName, "counselors cannot edit identity fields")
	assert.Equal(t, "Warm", resp.Lead.Status)
	require.NotNil(t, resp.Lead.SubStatus)
	assert.Equal(t, "Call back", *resp.Lead.SubStatus)
	require.NotNil(t, resp.Lead.Description)
	assert.Equal(t, "spoke on phone", *resp.Lead.Description)
}

func TestUpdateLeadRequiresFields(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(10, "c10", "counselor", "Delhi Center", "online")
	actor := counselorActor(10, "Delhi Center")

	created, err := fixture.flow.Create(context.Background(), validCreateRequest(), actor, nil)
	require.NoError(t, err)

	t.Run("empty request", func(t *testing.T) {
		_, err := fixture.flow.Update(context.Background(), created.Lead.ID, &dto.UpdateLeadRequest{}, actor)
		assertBusinessCode(t, err, "LEAD_UPDATE_REQUIRED")
		assert.True(t, IsLeadUpdateRequired(err))
	})

	t.Run("counselor request stripped to nothing", func(t *testing.T) {
		_, err := fixture.flow.Update(context.Background(), created.Lead.ID, &dto.UpdateLeadRequest{
			FirstName: utils.ToPtr("Hacked"),
		}, actor)
		assertBusinessCode(t, err, "LEAD_UPDATE_REQUIRED")
	})
}

func TestUpdateLeadEvents(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(1, "manager", "center-manager", "Delhi Center", "online")
	fixture.addUser(2, "c2", "counselor", "Delhi Center", "online")
	manager := managerActor(1, "Delhi Center")

	created, err := fixture.flow.Create(context.Background(), validCreateRequest(), manager, nil)
	require.NoError(t, err)
	leadID := created.Lead.ID

	_, err = fixture.flow.Update(context.Background(), leadID, &dto.UpdateLeadRequest{
		AssignedUserID: utils.ToPtr(uint(2)),
		SubStatus:      utils.ToPtr("Docs pending"),
		NextFollowUpAt: utils.ToPtr(utils.UTCNow().Add(24 * time.Hour)),
	}, manager)
	require.NoError(t, err)

	owner := fixture.eventRepo.byAction(leadID, models.LeadActionOwnerChange)
	require.Len(t, owner, 1)
	require.NotNil(t, owner[0].FromValue)
	assert.Equal(t, uint(1), *owner[0].FromValue.AssignedUserID)
	assert.Equal(t, uint(2), *owner[0].ToValue.AssignedUserID)

	assert.Len(t, fixture.eventRepo.byAction(leadID, models.LeadActionSubStatusChange), 1)
	assert.Len(t, fixture.eventRepo.byAction(leadID, models.LeadActionFollowUpChange), 1)
	assert.Equal(t, 1, fixture.realtime.updated)
}

func TestGetLeadScope(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(10, "c10", "counselor", "Delhi Center", "online")
	fixture.addUser(11, "c11", "counselor", "Delhi Center", "online")
	fixture.addUser(20, "m20", "center-manager", "Mumbai", "online")
	owner := counselorActor(10, "Delhi Center")

	created, err := fixture.flow.Create(context.Background(), validCreateRequest(), owner, nil)
	require.NoError(t, err)
	leadID := created.Lead.ID

	t.Run("owner reads own lead", func(t *testing.T) {
		_, err := fixture.flow.Get(context.Background(), leadID, owner)
		require.NoError(t, err)
	})

	t.Run("other counselor sees not found", func(t *testing.T) {
		_, err := fixture.flow.Get(context.Background(), leadID, counselorActor(11, "Delhi Center"))
		assertBusinessCode(t, err, "LEAD_NOT_FOUND")
		assert.True(t, IsLeadNotFound(err))
	})

	t.Run("manager of another center sees not found", func(t *testing.T) {
		_, err := fixture.flow.Get(context.Background(), leadID, managerActor(20, "Mumbai"))
		assertBusinessCode(t, err, "LEAD_NOT_FOUND")
		assert.True(t, IsLeadNotFound(err))
	})

	t.Run("super admin reads anything", func(t *testing.T) {
		_, err := fixture.flow.Get(context.Background(), leadID, superAdminActor(1))
		require.NoError(t, err)
	})

	t.Run("unknown lead", func(t *testing.T) {
		_, err := fixture.flow.Get(context.Background(), 9999, owner)
		assertBusinessCode(t, err, "LEAD_NOT_FOUND")
	})

	// An out-of-scope read and a genuinely missing lead must be indistinguishable,
	// otherwise lead IDs of other centers can be enumerated
	t.Run("out-of-scope and missing leads look alike", func(t *testing.T) {
		outsider := managerActor(20, "Mumbai")
		_, scopeErr := fixture.flow.Get(context.Background(), leadID, outsider)
		_, missingErr := fixture.flow.Get(context.Background(), 9999, outsider)

		var scopeBE, missingBE *BusinessError
		require.ErrorAs(t, scopeErr, &scopeBE)
		require.ErrorAs(t, missingErr, &missingBE)
		assert.Equal(t, missingBE.Code, scopeBE.Code)
	})
}

func TestListLeadsScope(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(1, "m1", "center-manager", "Delhi Center", "online")
	fixture.addUser(2, "c2", "counselor", "Delhi Center", "online")
	fixture.addUser(3, "m3", "center-manager", "Mumbai", "online")

	// Two Delhi leads (one per user) and one Mumbai lead
	delhiCounselor := counselorActor(2, "Delhi Center")
	_, err := fixture.flow.Create(context.Background(), validCreateRequest(), delhiCounselor, nil)
	require.NoError(t, err)

	second := validCreateRequest()
	second.Email = "second@example.com"
	_, err = fixture.flow.Create(context.Background(), second, managerActor(1, "Delhi Center"), nil)
	require.NoError(t, err)

	third := validCreateRequest()
	third.Email = "third@example.com"
	_, err = fixture.flow.Create(context.Background(), third, managerActor(3, "Mumbai"), nil)
	require.NoError(t, err)

	t.Run("super admin sees all", func(t *testing.T) {
		resp, err := fixture.flow.List(context.Background(), &dto.ListLeadsRequest{}, superAdminActor(9))
		require.NoError(t, err)
		assert.Equal(t, int64(3), resp.Total)
	})

	t.Run("manager sees own center only", func(t *testing.T) {
		resp, err := fixture.flow.List(context.Background(), &dto.ListLeadsRequest{}, managerActor(1, "Delhi Center"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.Total)
	})

	t.Run("counselor sees own assignments only", func(t *testing.T) {
		resp, err := fixture.flow.List(context.Background(), &dto.ListLeadsRequest{}, delhiCounselor)
		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.Total)
	})

	t.Run("page size cap", func(t *testing.T) {
		_, err := fixture.flow.List(context.Background(), &dto.ListLeadsRequest{PageSize: 500}, superAdminActor(9))
		assertBusinessCode(t, err, "INVALID_PAGE_SIZE")
	})

	t.Run("inverted date range", func(t *testing.T) {
		start := utils.UTCNow()
		end := start.Add(-time.Hour)
		_, err := fixture.flow.List(context.Background(), &dto.ListLeadsRequest{StartDate: &start, EndDate: &end}, superAdminActor(9))
		assertBusinessCode(t, err, "INVALID_DATE_RANGE")
	})

	t.Run("manager without a center is rejected", func(t *testing.T) {
		_, err := fixture.flow.List(context.Background(), &dto.ListLeadsRequest{}, managerActor(5, ""))
		assertBusinessCode(t, err, "LEAD_LIST_FORBIDDEN")
	})
}

func TestAssignLead(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(1, "manager", "center-manager", "Delhi Center", "online")
	fixture.addUser(2, "c2", "counselor", "Delhi Center", "online")
	fixture.addUser(3, "c3", "counselor", "Mumbai", "online")
	manager := managerActor(1, "Delhi Center")

	created, err := fixture.flow.Create(context.Background(), validCreateRequest(), manager, nil)
	require.NoError(t, err)
	leadID := created.Lead.ID

	t.Run("manager assigns within the center", func(t *testing.T) {
		resp, err := fixture.flow.Assign(context.Background(), leadID, &dto.AssignLeadRequest{AssigneeID: 2}, manager)
		require.NoError(t, err)
		require.NotNil(t, resp.Lead.AssignedUserID)
		assert.Equal(t, uint(2), *resp.Lead.AssignedUserID)
		require.NotNil(t, resp.Lead.CounselorName)
		assert.Equal(t, "Test c2", *resp.Lead.CounselorName)
		assert.Equal(t, 1, fixture.realtime.assigned)

		// Reassignment of an owned lead is recorded as an owner change, and the
		// displaced owner is named in the emitted event
		assert.Len(t, fixture.eventRepo.byAction(leadID, models.LeadActionOwnerChange), 1)
		require.Len(t, fixture.realtime.prevAssignees, 1)
		require.NotNil(t, fixture.realtime.prevAssignees[0])
		assert.Equal(t, uint(1), *fixture.realtime.prevAssignees[0])
	})

	t.Run("cross-center assignee is rejected", func(t *testing.T) {
		_, err := fixture.flow.Assign(context.Background(), leadID, &dto.AssignLeadRequest{AssigneeID: 3}, manager)
		assertBusinessCode(t, err, "ASSIGNEE_NOT_IN_CENTER")
	})

	t.Run("unknown assignee", func(t *testing.T) {
		_, err := fixture.flow.Assign(context.Background(), leadID, &dto.AssignLeadRequest{AssigneeID: 404}, manager)
		assertBusinessCode(t, err, "ASSIGNEE_NOT_FOUND")
	})

	t.Run("counselor may not assign", func(t *testing.T) {
		_, err := fixture.flow.Assign(context.Background(), leadID, &dto.AssignLeadRequest{AssigneeID: 2}, counselorActor(2, "Delhi Center"))
		assertBusinessCode(t, err, "LEAD_ASSIGN_FORBIDDEN")
	})
}

func TestBulkAssignLeads(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(1, "manager", "center-manager", "Delhi Center", "online")
	fixture.addUser(2, "c2", "counselor", "Delhi Center", "online")
	manager := managerActor(1, "Delhi Center")

	created, err := fixture.flow.Create(context.Background(), validCreateRequest(), manager, nil)
	require.NoError(t, err)

	resp, err := fixture.flow.BulkAssign(context.Background(), &dto.BulkAssignLeadsRequest{
		LeadIDs:    []uint{created.Lead.ID, 9999},
		AssigneeID: 2,
	}, manager)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].OK)
	assert.False(t, resp.Results[1].OK)
	require.NotNil(t, resp.Results[1].Error)

	t.Run("empty batch", func(t *testing.T) {
		_, err := fixture.flow.BulkAssign(context.Background(), &dto.BulkAssignLeadsRequest{AssigneeID: 2}, manager)
		assertBusinessCode(t, err, "LEAD_IDS_REQUIRED")
	})
}

func TestRemoveLead(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(10, "c10", "counselor", "Delhi Center", "online")
	actor := counselorActor(10, "Delhi Center")

	created, err := fixture.flow.Create(context.Background(), validCreateRequest(), actor, nil)
	require.NoError(t, err)
	leadID := created.Lead.ID

	resp, err := fixture.flow.Remove(context.Background(), leadID, actor)
	require.NoError(t, err)
	assert.Equal(t, leadID, resp.ID)
	assert.Equal(t, 1, fixture.realtime.deleted)

	// The row is gone for good, but the audit trail survives the deletion
	_, ok := fixture.leadRepo.leads[leadID]
	assert.False(t, ok, "removal deletes the row")
	assert.Len(t, fixture.eventRepo.byAction(leadID, models.LeadActionCreate), 1)
	deletions := fixture.eventRepo.byAction(leadID, models.LeadActionDelete)
	require.Len(t, deletions, 1)
	require.NotNil(t, deletions[0].FromValue)
	assert.Equal(t, created.Lead.ReferenceNo, *deletions[0].FromValue.ReferenceNo)

	t.Run("removed lead reads as not found", func(t *testing.T) {
		_, err := fixture.flow.Get(context.Background(), leadID, actor)
		assertBusinessCode(t, err, "LEAD_NOT_FOUND")
	})

	t.Run("double remove fails", func(t *testing.T) {
		_, err := fixture.flow.Remove(context.Background(), leadID, actor)
		assertBusinessCode(t, err, "LEAD_NOT_FOUND")
	})
}

func TestBulkRemoveLeads(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(10, "c10", "counselor", "Delhi Center", "online")
	actor := counselorActor(10, "Delhi Center")

	created, err := fixture.flow.Create(context.Background(), validCreateRequest(), actor, nil)
	require.NoError(t, err)

	resp, err := fixture.flow.BulkRemove(context.Background(), &dto.BulkRemoveLeadsRequest{
		LeadIDs: []uint{created.Lead.ID, 4242},
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
}

func TestLeadHistory(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(10, "c10", "counselor", "Delhi Center", "online")
	actor := counselorActor(10, "Delhi Center")

	created, err := fixture.flow.Create(context.Background(), validCreateRequest(), actor, nil)
	require.NoError(t, err)
	leadID := created.Lead.ID

	_, err = fixture.flow.Update(context.Background(), leadID, &dto.UpdateLeadRequest{
		Status: utils.ToPtr("Warm"),
	}, actor)
	require.NoError(t, err)

	resp, err := fixture.flow.History(context.Background(), leadID, actor)
	require.NoError(t, err)
	// create + assignment from creation, status + score change from the update
	require.Len(t, resp.Events, 4)

	// Newest first: the update events outrank the creation events
	assert.Equal(t, models.LeadActionScoreChange, resp.Events[0].Action)
	assert.Equal(t, models.LeadActionStatusChange, resp.Events[1].Action)
	assert.Equal(t, models.LeadActionCreate, resp.Events[len(resp.Events)-1].Action)

	// Every event names the actor, not just their ID
	for _, e := range resp.Events {
		require.NotNil(t, e.ChangedByUser, "event %s misses its actor details", e.Action)
		assert.Equal(t, uint(10), e.ChangedByUser.ID)
		assert.Equal(t, "c10", e.ChangedByUser.UserName)
		assert.Equal(t, "Test c10", e.ChangedByUser.FullName)
		assert.Equal(t, "counselor", e.ChangedByUser.Role)
	}
}

func TestLeadHistoryOwnerEnrichment(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(1, "m1", "center-manager", "Delhi Center", "online")
	fixture.addUser(2, "c2", "counselor", "Delhi Center", "online")
	manager := managerActor(1, "Delhi Center")

	created, err := fixture.flow.Create(context.Background(), validCreateRequest(), manager, nil)
	require.NoError(t, err)
	leadID := created.Lead.ID

	_, err = fixture.flow.Assign(context.Background(), leadID, &dto.AssignLeadRequest{AssigneeID: 2}, manager)
	require.NoError(t, err)

	resp, err := fixture.flow.History(context.Background(), leadID, manager)
	require.NoError(t, err)

	var ownerChange *dto.LeadEventItem
	for i := range resp.Events {
		if resp.Events[i].Action == models.LeadActionOwnerChange {
			ownerChange = &resp.Events[i]
			break
		}
	}
	require.NotNil(t, ownerChange)

	require.NotNil(t, ownerChange.FromUser)
	assert.Equal(t, "m1", ownerChange.FromUser.UserName)
	assert.Equal(t, "center-manager", ownerChange.FromUser.Role)

	require.NotNil(t, ownerChange.ToUser)
	assert.Equal(t, "c2", ownerChange.ToUser.UserName)
	assert.Equal(t, "Test c2", ownerChange.ToUser.FullName)
	assert.Equal(t, "counselor", ownerChange.ToUser.Role)

	t.Run("removed user stays a bare ID", func(t *testing.T) {
		fixture.userRepo.remove(1)
		resp, err := fixture.flow.History(context.Background(), leadID, superAdminActor(9))
		require.NoError(t, err)
		for _, e := range resp.Events {
			if e.Action == models.LeadActionOwnerChange {
				assert.Nil(t, e.FromUser)
				require.NotNil(t, e.FromValue)
			}
		}
	})
}

func TestLeadStatistics(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(10, "c10", "counselor", "Delhi Center", "online")
	fixture.addUser(20, "c20", "counselor", "Mumbai", "online")

	req := validCreateRequest()
	req.Status = utils.ToPtr("Hot")
	req.LeadSource = utils.ToPtr("walk-in")
	_, err := fixture.flow.Create(context.Background(), req, counselorActor(10, "Delhi Center"), nil)
	require.NoError(t, err)

	other := validCreateRequest()
	other.Email = "other@example.com"
	_, err = fixture.flow.Create(context.Background(), other, counselorActor(20, "Mumbai"), nil)
	require.NoError(t, err)

	t.Run("super admin aggregates the whole platform", func(t *testing.T) {
		resp, err := fixture.flow.Statistics(context.Background(), superAdminActor(1))
		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.Total)
		assert.Equal(t, int64(1), resp.ByStatus["Hot"])
		assert.Equal(t, int64(1), resp.ByStatus["New"])
		assert.Equal(t, int64(1), resp.BySource["walk-in"])
	})

	t.Run("counselor aggregates own leads only", func(t *testing.T) {
		resp, err := fixture.flow.Statistics(context.Background(), counselorActor(10, "Delhi Center"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.Total)
	})
}

func TestLeadTimeseries(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(10, "c10", "counselor", "Delhi Center", "online")

	_, err := fixture.flow.Create(context.Background(), validCreateRequest(), counselorActor(10, "Delhi Center"), nil)
	require.NoError(t, err)

	resp, err := fixture.flow.Timeseries(context.Background(), 0, superAdminActor(1))
	require.NoError(t, err)
	assert.Equal(t, 30, resp.Days, "non-positive day counts default to 30")

	today := utils.UTCNow().Format("2006-01-02")
	assert.Equal(t, int64(1), resp.ByDay[today])
}
