// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/amirphl/Seiryu-CRM/models"
	"github.com/amirphl/Seiryu-CRM/utils"
)

// fakeLeadRepo is an in-memory LeadRepository for flow tests
type fakeLeadRepo struct {
	mu     sync.Mutex
	leads  map[uint]*models.Lead
	nextID uint

	// refNoTakenCalls makes ExistsByReferenceNo report a collision for the
	// first N calls, to exercise the regeneration loop
	refNoTakenCalls int

	// activeCounts overrides CountActiveByAssignees when non-nil
	activeCounts map[uint]int64
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: make(map[uint]*models.Lead)}
}

func (r *fakeLeadRepo) match(l *models.Lead, f models.LeadFilter) bool {
	if l.Deleted {
		return false
	}
	if f.Status != nil && l.Status != *f.Status {
		return false
	}
	if f.LeadSource != nil && (l.LeadSource == nil || *l.LeadSource != *f.LeadSource) {
		return false
	}
	if f.CenterName != nil && (l.CenterName == nil || *l.CenterName != *f.CenterName) {
		return false
	}
	if f.AssignedUserID != nil && (l.AssignedUserID == nil || *l.AssignedUserID != *f.AssignedUserID) {
		return false
	}
	if f.IsImportant != nil && l.IsImportant != *f.IsImportant {
		return false
	}
	if f.ScopeAssignedTo != nil || f.ScopeUnassignedCreatedBy != nil {
		inScope := false
		if l.AssignedUserID != nil {
			for _, id := range f.ScopeAssignedTo {
				if id == *l.AssignedUserID {
					inScope = true
					break
				}
			}
		} else if l.CreatedBy != nil {
			for _, id := range f.ScopeUnassignedCreatedBy {
				if id == *l.CreatedBy {
					inScope = true
					break
				}
			}
		}
		if !inScope {
			return false
		}
	}
	return true
}

func (r *fakeLeadRepo) sortedIDs() []uint {
	ids := make([]uint, 0, len(r.leads))
	for id := range r.leads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *fakeLeadRepo) all() []*models.Lead {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Lead, 0, len(r.leads))
	for _, id := range r.sortedIDs() {
		cp := *r.leads[id]
		out = append(out, &cp)
	}
	return out
}

func (r *fakeLeadRepo) ByID(ctx context.Context, id uint) (*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLeadRepo) ByFilter(ctx context.Context, filter models.LeadFilter, orderBy string, limit, offset int) ([]*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Lead
	for _, id := range r.sortedIDs() {
		if r.match(r.leads[id], filter) {
			cp := *r.leads[id]
			out = append(out, &cp)
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeLeadRepo) Save(ctx context.Context, lead *models.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.leads {
		if existing.ReferenceNo == lead.ReferenceNo {
			return fmt.Errorf("duplicate key value violates unique constraint (SQLSTATE 23505)")
		}
	}
	r.nextID++
	lead.ID = r.nextID
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = utils.UTCNow()
	}
	if lead.UpdatedAt.IsZero() {
		lead.UpdatedAt = utils.UTCNow()
	}
	cp := *lead
	r.leads[lead.ID] = &cp
	return nil
}

func (r *fakeLeadRepo) SaveBatch(ctx context.Context, leads []*models.Lead) error {
	for _, l := range leads {
		if err := r.Save(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeLeadRepo) Count(ctx context.Context, filter models.LeadFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, l := range r.leads {
		if r.match(l, filter) {
			n++
		}
	}
	return n, nil
}

func (r *fakeLeadRepo) Exists(ctx context.Context, filter models.LeadFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeLeadRepo) ByUUID(ctx context.Context, uuidStr string) (*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.UUID.String() == uuidStr {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLeadRepo) ByReferenceNo(ctx context.Context, referenceNo string) (*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.ReferenceNo == referenceNo {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLeadRepo) ExistsByReferenceNo(ctx context.Context, referenceNo string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refNoTakenCalls > 0 {
		r.refNoTakenCalls--
		return true, nil
	}
	for _, l := range r.leads {
		if l.ReferenceNo == referenceNo {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLeadRepo) Update(ctx context.Context, lead *models.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[lead.ID]; !ok {
		return fmt.Errorf("lead %d not found", lead.ID)
	}
	lead.UpdatedAt = utils.UTCNow()
	cp := *lead
	r.leads[lead.ID] = &cp
	return nil
}

func (r *fakeLeadRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[id]; !ok {
		return fmt.Errorf("lead %d not found", id)
	}
	delete(r.leads, id)
	return nil
}

func (r *fakeLeadRepo) CountActiveByAssignees(ctx context.Context, userIDs []uint) (map[uint]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uint]int64, len(userIDs))
	if r.activeCounts != nil {
		for _, id := range userIDs {
			out[id] = r.activeCounts[id]
		}
		return out, nil
	}
	for _, l := range r.leads {
		if l.Deleted || l.AssignedUserID == nil || models.IsClosedStatus(l.Status) {
			continue
		}
		for _, id := range userIDs {
			if id == *l.AssignedUserID {
				out[id]++
				break
			}
		}
	}
	return out, nil
}

func (r *fakeLeadRepo) CountByStatus(ctx context.Context, filter models.LeadFilter) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64)
	for _, l := range r.leads {
		if r.match(l, filter) {
			out[l.Status]++
		}
	}
	return out, nil
}

func (r *fakeLeadRepo) CountBySource(ctx context.Context, filter models.LeadFilter) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64)
	for _, l := range r.leads {
		if r.match(l, filter) {
			src := "unknown"
			if l.LeadSource != nil && *l.LeadSource != "" {
				src = *l.LeadSource
			}
			out[src]++
		}
	}
	return out, nil
}

func (r *fakeLeadRepo) CountByDay(ctx context.Context, filter models.LeadFilter, days int) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64)
	for _, l := range r.leads {
		if r.match(l, filter) {
			out[l.CreatedAt.Format("2006-01-02")]++
		}
	}
	return out, nil
}

// fakeUserRepo is an in-memory UserRepository for flow tests
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*models.User)}
}

func (r *fakeUserRepo) add(u models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := u
	r.users[u.ID] = &cp
}

func (r *fakeUserRepo) remove(id uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

func (r *fakeUserRepo) sortedIDs() []uint {
	ids := make([]uint, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *fakeUserRepo) ByID(ctx context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) ByFilter(ctx context.Context, filter models.UserFilter, orderBy string, limit, offset int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, id := range r.sortedIDs() {
		u := r.users[id]
		if u.Deleted {
			continue
		}
		if filter.CenterName != nil && (u.CenterName == nil || *u.CenterName != *filter.CenterName) {
			continue
		}
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.UserName != nil && u.UserName != *filter.UserName {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeUserRepo) Save(ctx context.Context, user *models.User) error {
	r.add(*user)
	return nil
}

func (r *fakeUserRepo) SaveBatch(ctx context.Context, users []*models.User) error {
	for _, u := range users {
		r.add(*u)
	}
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (r *fakeUserRepo) Exists(ctx context.Context, filter models.UserFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeUserRepo) ByUserName(ctx context.Context, userName string) (*models.User, error) {
	rows, err := r.ByFilter(ctx, models.UserFilter{UserName: &userName}, "", 1, 0)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *fakeUserRepo) ByIDs(ctx context.Context, ids []uint) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListCounselorsByCenter(ctx context.Context, centerName string) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, id := range r.sortedIDs() {
		u := r.users[id]
		if u.Deleted || u.NormalizedRole() != models.RoleCounselor {
			continue
		}
		if u.CenterName == nil || *u.CenterName != centerName {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeUserRepo) DistinctCenterNames(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{})
	var out []string
	for _, u := range r.users {
		if u.Deleted || u.CenterName == nil || *u.CenterName == "" {
			continue
		}
		if _, ok := seen[*u.CenterName]; ok {
			continue
		}
		seen[*u.CenterName] = struct{}{}
		out = append(out, *u.CenterName)
	}
	sort.Strings(out)
	return out, nil
}

// fakeRuleRepo is an in-memory RoutingRuleRepository for flow tests
type fakeRuleRepo struct {
	mu     sync.Mutex
	rules  map[uint]*models.RoutingRule
	nextID uint

	// casFailures rejects the first N compare-and-set calls to simulate
	// concurrent cursor advances
	casFailures int
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{rules: make(map[uint]*models.RoutingRule)}
}

func (r *fakeRuleRepo) add(rule models.RoutingRule) *models.RoutingRule {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule.ID == 0 {
		r.nextID++
		rule.ID = r.nextID
	}
	cp := rule
	r.rules[rule.ID] = &cp
	return &cp
}

func (r *fakeRuleRepo) ByID(ctx context.Context, id uint) (*models.RoutingRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, nil
	}
	cp := *rule
	return &cp, nil
}

func (r *fakeRuleRepo) ByFilter(ctx context.Context, filter models.RoutingRuleFilter, orderBy string, limit, offset int) ([]*models.RoutingRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RoutingRule
	for _, rule := range r.rules {
		if filter.CenterName != nil && rule.CenterName != *filter.CenterName {
			continue
		}
		if filter.IsActive != nil && rule.IsActive != *filter.IsActive {
			continue
		}
		cp := *rule
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRuleRepo) Save(ctx context.Context, rule *models.RoutingRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule.ID == 0 {
		r.nextID++
		rule.ID = r.nextID
	}
	cp := *rule
	r.rules[rule.ID] = &cp
	return nil
}

func (r *fakeRuleRepo) SaveBatch(ctx context.Context, rules []*models.RoutingRule) error {
	for _, rule := range rules {
		if err := r.Save(ctx, rule); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRuleRepo) Count(ctx context.Context, filter models.RoutingRuleFilter) (int64, error) {
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (r *fakeRuleRepo) Exists(ctx context.Context, filter models.RoutingRuleFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeRuleRepo) ActiveByCenter(ctx context.Context, centerName string) (*models.RoutingRule, error) {
	active := true
	rows, err := r.ByFilter(ctx, models.RoutingRuleFilter{CenterName: &centerName, IsActive: &active}, "", 1, 0)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *fakeRuleRepo) DeactivateForCenter(ctx context.Context, centerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rule := range r.rules {
		if rule.CenterName == centerName {
			rule.IsActive = false
		}
	}
	return nil
}

func (r *fakeRuleRepo) Update(ctx context.Context, rule *models.RoutingRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[rule.ID]; !ok {
		return fmt.Errorf("rule %d not found", rule.ID)
	}
	cp := *rule
	r.rules[rule.ID] = &cp
	return nil
}

func (r *fakeRuleRepo) CompareAndSetLastAssigned(ctx context.Context, ruleID uint, prev *uint, next uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.casFailures > 0 {
		r.casFailures--
		return false, nil
	}
	rule, ok := r.rules[ruleID]
	if !ok {
		return false, nil
	}
	if !equalUintPtr(rule.LastAssignedUserID, prev) {
		return false, nil
	}
	rule.LastAssignedUserID = &next
	return true, nil
}

// fakeEventRepo is an in-memory LeadEventRepository for flow tests
type fakeEventRepo struct {
	mu     sync.Mutex
	events []*models.LeadEvent
	nextID uint
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{}
}

func (r *fakeEventRepo) ByID(ctx context.Context, id uint) (*models.LeadEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeEventRepo) ByFilter(ctx context.Context, filter models.LeadEventFilter, orderBy string, limit, offset int) ([]*models.LeadEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.LeadEvent
	for _, e := range r.events {
		if filter.LeadID != nil && e.LeadID != *filter.LeadID {
			continue
		}
		if filter.Action != nil && e.Action != *filter.Action {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeEventRepo) Save(ctx context.Context, event *models.LeadEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	event.ID = r.nextID
	if event.ChangedAt.IsZero() {
		event.ChangedAt = utils.UTCNow()
	}
	cp := *event
	r.events = append(r.events, &cp)
	return nil
}

func (r *fakeEventRepo) SaveBatch(ctx context.Context, events []*models.LeadEvent) error {
	for _, e := range events {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeEventRepo) Count(ctx context.Context, filter models.LeadEventFilter) (int64, error) {
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (r *fakeEventRepo) Exists(ctx context.Context, filter models.LeadEventFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeEventRepo) ListByLead(ctx context.Context, leadID uint, limit, offset int) ([]*models.LeadEvent, error) {
	return r.ByFilter(ctx, models.LeadEventFilter{LeadID: &leadID}, "", limit, offset)
}

// byAction returns the lead's events carrying the given action, oldest first
func (r *fakeEventRepo) byAction(leadID uint, action string) []*models.LeadEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.LeadEvent
	for _, e := range r.events {
		if e.LeadID == leadID && e.Action == action {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out
}

// fakeFieldSettingRepo is an in-memory FieldSettingRepository for flow tests
type fakeFieldSettingRepo struct {
	mu       sync.Mutex
	settings map[string]*models.LeadFieldSetting
	nextID   uint
}

func newFakeFieldSettingRepo() *fakeFieldSettingRepo {
	return &fakeFieldSettingRepo{settings: make(map[string]*models.LeadFieldSetting)}
}

func (r *fakeFieldSettingRepo) ByID(ctx context.Context, id uint) (*models.LeadFieldSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.settings {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFieldSettingRepo) ByFilter(ctx context.Context, filter models.LeadFieldSettingFilter, orderBy string, limit, offset int) ([]*models.LeadFieldSetting, error) {
	return r.All(ctx)
}

func (r *fakeFieldSettingRepo) Save(ctx context.Context, setting *models.LeadFieldSetting) error {
	return r.Upsert(ctx, setting)
}

func (r *fakeFieldSettingRepo) SaveBatch(ctx context.Context, settings []*models.LeadFieldSetting) error {
	for _, s := range settings {
		if err := r.Upsert(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeFieldSettingRepo) Count(ctx context.Context, filter models.LeadFieldSettingFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.settings)), nil
}

func (r *fakeFieldSettingRepo) Exists(ctx context.Context, filter models.LeadFieldSettingFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeFieldSettingRepo) All(ctx context.Context) ([]*models.LeadFieldSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.settings))
	for k := range r.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*models.LeadFieldSetting, 0, len(keys))
	for _, k := range keys {
		cp := *r.settings[k]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeFieldSettingRepo) Upsert(ctx context.Context, setting *models.LeadFieldSetting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.settings[setting.Key]; ok {
		setting.ID = existing.ID
	} else {
		r.nextID++
		setting.ID = r.nextID
	}
	cp := *setting
	r.settings[setting.Key] = &cp
	return nil
}

// recordingRealtime counts emitted events instead of publishing them
type recordingRealtime struct {
	mu            sync.Mutex
	created       int
	updated       int
	deleted       int
	assigned      int
	prevAssignees []*uint
}

func (s *recordingRealtime) EmitLeadCreated(ctx context.Context, lead *models.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created++
}

func (s *recordingRealtime) EmitLeadUpdated(ctx context.Context, lead *models.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated++
}

func (s *recordingRealtime) EmitLeadDeleted(ctx context.Context, lead *models.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted++
}

func (s *recordingRealtime) EmitLeadAssigned(ctx context.Context, lead *models.Lead, assigneeID uint, previousAssigneeID *uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assigned++
	if previousAssigneeID != nil {
		prev := *previousAssigneeID
		s.prevAssignees = append(s.prevAssignees, &prev)
	} else {
		s.prevAssignees = append(s.prevAssignees, nil)
	}
}

// leadFlowFixture wires the flows over the in-memory fakes
type leadFlowFixture struct {
	leadRepo    *fakeLeadRepo
	userRepo    *fakeUserRepo
	ruleRepo    *fakeRuleRepo
	eventRepo   *fakeEventRepo
	settingRepo *fakeFieldSettingRepo
	realtime    *recordingRealtime

	routing     LeadRoutingFlow
	centerCodes CenterCodeFlow
	settings    FieldSettingsFlow
	flow        LeadFlow
}

func newLeadFlowFixture() *leadFlowFixture {
	f := &leadFlowFixture{
		leadRepo:    newFakeLeadRepo(),
		userRepo:    newFakeUserRepo(),
		ruleRepo:    newFakeRuleRepo(),
		eventRepo:   newFakeEventRepo(),
		settingRepo: newFakeFieldSettingRepo(),
		realtime:    &recordingRealtime{},
	}
	f.routing = NewLeadRoutingFlow(f.ruleRepo, f.userRepo, f.leadRepo)
	f.centerCodes = NewCenterCodeFlow(f.userRepo, f.leadRepo)
	f.settings = NewFieldSettingsFlow(f.settingRepo)
	f.flow = NewLeadFlow(f.leadRepo, f.userRepo, f.eventRepo, f.routing, f.centerCodes, f.settings, f.realtime, nil)
	return f
}

func (f *leadFlowFixture) addUser(id uint, userName, role, centerName, presence string) models.User {
	u := models.User{
		ID:           id,
		UserName:     userName,
		FirstName:    "Test",
		LastName:     userName,
		Email:        userName + "@example.com",
		MobileNumber: "+911234567890",
		Role:         role,
		Presence:     presence,
	}
	if centerName != "" {
		u.CenterName = &centerName
	}
	f.userRepo.add(u)
	return u
}
