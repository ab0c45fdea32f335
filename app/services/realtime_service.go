// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/amirphl/Seiryu-CRM/models"
	"github.com/redis/go-redis/v9"
)

// Realtime event names consumed by websocket gateways
const (
	EventLeadCreated  = "lead:created"
	EventLeadUpdated  = "lead:updated"
	EventLeadDeleted  = "lead:deleted"
	EventLeadAssigned = "lead:assigned"
)

// RealtimeService fans lead lifecycle events out to interested parties.
// Delivery is best effort; publish failures are logged and never surface to callers.
type RealtimeService interface {
	EmitLeadCreated(ctx context.Context, lead *models.Lead)
	EmitLeadUpdated(ctx context.Context, lead *models.Lead)
	EmitLeadDeleted(ctx context.Context, lead *models.Lead)
	EmitLeadAssigned(ctx context.Context, lead *models.Lead, assigneeID uint, previousAssigneeID *uint)
}

// realtimeEnvelope is the wire format published to Redis channels
type realtimeEnvelope struct {
	Event       string       `json:"event"`
	EmittedAt   time.Time    `json:"emitted_at"`
	Lead        *models.Lead `json:"lead"`
	AssigneeID  *uint        `json:"assignee_id,omitempty"`
	ReferenceNo string       `json:"reference_no"`
}

// RedisRealtimeService publishes events to Redis pub/sub channels:
// one per center, one per assigned user, and a shared admin channel.
type RedisRealtimeService struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisRealtimeService creates a Redis-backed realtime service
func NewRedisRealtimeService(client *redis.Client) RealtimeService {
	return &RedisRealtimeService{
		client:  client,
		timeout: 5 * time.Second,
	}
}

func (s *RedisRealtimeService) EmitLeadCreated(ctx context.Context, lead *models.Lead) {
	s.publish(ctx, EventLeadCreated, lead, nil)
}

func (s *RedisRealtimeService) EmitLeadUpdated(ctx context.Context, lead *models.Lead) {
	s.publish(ctx, EventLeadUpdated, lead, nil)
}

func (s *RedisRealtimeService) EmitLeadDeleted(ctx context.Context, lead *models.Lead) {
	s.publish(ctx, EventLeadDeleted, lead, nil)
}

// EmitLeadAssigned notifies the new owner and, on a reassignment, the displaced
// owner's channel as well
func (s *RedisRealtimeService) EmitLeadAssigned(ctx context.Context, lead *models.Lead, assigneeID uint, previousAssigneeID *uint) {
	extra := []uint{}
	if previousAssigneeID != nil && *previousAssigneeID != assigneeID {
		extra = append(extra, *previousAssigneeID)
	}
	s.publish(ctx, EventLeadAssigned, lead, &assigneeID, extra...)
}

// publish serializes the event and writes it to every interested channel.
// The caller's context may already be canceled by the time the request finishes,
// so publishing runs on a detached context with its own deadline.
func (s *RedisRealtimeService) publish(_ context.Context, event string, lead *models.Lead, assigneeID *uint, extraUsers ...uint) {
	if lead == nil {
		return
	}

	envelope := realtimeEnvelope{
		Event:       event,
		EmittedAt:   time.Now().UTC(),
		Lead:        lead,
		AssigneeID:  assigneeID,
		ReferenceNo: lead.ReferenceNo,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("realtime: failed to marshal %s for lead %d: %v", event, lead.ID, err)
		return
	}

	channels := []string{"crm:admins"}
	if lead.CenterName != nil && *lead.CenterName != "" {
		channels = append(channels, "crm:center:"+*lead.CenterName)
	}
	if assigneeID != nil {
		channels = append(channels, userChannel(*assigneeID))
	} else if lead.AssignedUserID != nil {
		channels = append(channels, userChannel(*lead.AssignedUserID))
	}
	for _, id := range extraUsers {
		channels = append(channels, userChannel(id))
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		for _, ch := range channels {
			if err := s.client.Publish(ctx, ch, payload).Err(); err != nil {
				log.Printf("realtime: publish %s to %s failed: %v", event, ch, err)
			}
		}
	}()
}

func userChannel(userID uint) string {
	return "crm:user:" + strconv.FormatUint(uint64(userID), 10)
}

// NoopRealtimeService logs events instead of publishing them.
// Used when no Redis connection is configured and in tests.
type NoopRealtimeService struct{}

// NewNoopRealtimeService creates a log-only realtime service
func NewNoopRealtimeService() RealtimeService {
	return &NoopRealtimeService{}
}

func (s *NoopRealtimeService) EmitLeadCreated(ctx context.Context, lead *models.Lead) {
	if lead != nil {
		log.Printf("realtime: %s lead=%s (dropped, no broker)", EventLeadCreated, lead.ReferenceNo)
	}
}

func (s *NoopRealtimeService) EmitLeadUpdated(ctx context.Context, lead *models.Lead) {
	if lead != nil {
		log.Printf("realtime: %s lead=%s (dropped, no broker)", EventLeadUpdated, lead.ReferenceNo)
	}
}

func (s *NoopRealtimeService) EmitLeadDeleted(ctx context.Context, lead *models.Lead) {
	if lead != nil {
		log.Printf("realtime: %s lead=%s (dropped, no broker)", EventLeadDeleted, lead.ReferenceNo)
	}
}

func (s *NoopRealtimeService) EmitLeadAssigned(ctx context.Context, lead *models.Lead, assigneeID uint, previousAssigneeID *uint) {
	if lead != nil {
		log.Printf("realtime: %s lead=%s assignee=%d (dropped, no broker)", EventLeadAssigned, lead.ReferenceNo, assigneeID)
	}
}
