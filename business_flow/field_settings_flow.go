// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/Seiryu-CRM/app/dto"
	"github.com/amirphl/Seiryu-CRM/models"
	"github.com/amirphl/Seiryu-CRM/repository"
)

// FieldSettingsFlow manages the lead form configuration
type FieldSettingsFlow interface {
	List(ctx context.Context, actor Actor) (*dto.ListFieldSettingsResponse, error)
	Update(ctx context.Context, req *dto.UpdateFieldSettingRequest, actor Actor) (*dto.UpdateFieldSettingResponse, error)
	RequiredKeys(ctx context.Context) ([]string, error)
}

// FieldSettingsFlowImpl implements FieldSettingsFlow
type FieldSettingsFlowImpl struct {
	settingRepo repository.FieldSettingRepository
}

// NewFieldSettingsFlow creates a new field settings flow
func NewFieldSettingsFlow(settingRepo repository.FieldSettingRepository) FieldSettingsFlow {
	return &FieldSettingsFlowImpl{settingRepo: settingRepo}
}

// effectiveSettings merges stored settings over the defaults. Mandatory fields are
// forced visible and required; stray keys outside the default catalog are hidden.
func (f *FieldSettingsFlowImpl) effectiveSettings(ctx context.Context) ([]models.LeadFieldSetting, error) {
	stored, err := f.settingRepo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load field settings: %w", err)
	}

	byKey := make(map[string]*models.LeadFieldSetting, len(stored))
	for _, s := range stored {
		byKey[s.Key] = s
	}

	out := make([]models.LeadFieldSetting, 0, len(models.DefaultFieldSettings))
	for _, def := range models.DefaultFieldSettings {
		setting := def
		if s, ok := byKey[def.Key]; ok {
			setting.Visible = s.Visible
			setting.Required = s.Required
		}
		if _, mandatory := models.MandatoryFieldKeys[def.Key]; mandatory {
			setting.Visible = true
			setting.Required = true
		}
		out = append(out, setting)
	}
	return out, nil
}

// List returns the effective lead form configuration
func (f *FieldSettingsFlowImpl) List(ctx context.Context, actor Actor) (*dto.ListFieldSettingsResponse, error) {
	settings, err := f.effectiveSettings(ctx)
	if err != nil {
		return nil, NewBusinessError("FIELD_SETTINGS_FAILED", "failed to load field settings", err)
	}

	items := make([]dto.FieldSettingItem, 0, len(settings))
	for _, s := range settings {
		items = append(items, dto.FieldSettingItem{Key: s.Key, Visible: s.Visible, Required: s.Required})
	}

	return &dto.ListFieldSettingsResponse{
		Message:  "Field settings retrieved successfully",
		Settings: items,
	}, nil
}

// Update changes one field's visibility or requiredness, super admins only
func (f *FieldSettingsFlowImpl) Update(ctx context.Context, req *dto.UpdateFieldSettingRequest, actor Actor) (*dto.UpdateFieldSettingResponse, error) {
	if !actor.IsSuperAdmin() {
		return nil, NewBusinessError("FIELD_SETTINGS_FORBIDDEN", "only super admins may change field settings", ErrForbidden)
	}

	known := false
	for _, def := range models.DefaultFieldSettings {
		if def.Key == req.Key {
			known = true
			break
		}
	}
	if !known {
		return nil, NewBusinessErrorf("FIELD_KEY_UNKNOWN", "unknown field key %q", ErrFieldKeyUnknown, req.Key)
	}

	if _, mandatory := models.MandatoryFieldKeys[req.Key]; mandatory && (!req.Visible || !req.Required) {
		return nil, NewBusinessErrorf("MANDATORY_FIELD_LOCKED", "field %q must stay visible and required", ErrMandatoryFieldLocked, req.Key)
	}

	setting := &models.LeadFieldSetting{
		Key:      req.Key,
		Visible:  req.Visible,
		Required: req.Required,
	}
	if err := f.settingRepo.Upsert(ctx, setting); err != nil {
		return nil, NewBusinessError("FIELD_SETTINGS_FAILED", "failed to store field setting", err)
	}

	return &dto.UpdateFieldSettingResponse{
		Message: "Field setting updated successfully",
		Setting: dto.FieldSettingItem{Key: setting.Key, Visible: setting.Visible, Required: setting.Required},
	}, nil
}

// RequiredKeys lists every field key the current configuration marks required
func (f *FieldSettingsFlowImpl) RequiredKeys(ctx context.Context) ([]string, error) {
	settings, err := f.effectiveSettings(ctx)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, s := range settings {
		if s.Required {
			keys = append(keys, s.Key)
		}
	}
	return keys, nil
}
