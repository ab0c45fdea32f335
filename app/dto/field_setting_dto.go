package dto

// FieldSettingItem represents one lead form field's configuration
type FieldSettingItem struct {
	Key      string `json:"key"`
	Visible  bool   `json:"visible"`
	Required bool   `json:"required"`
}

// ListFieldSettingsResponse returns the full lead form configuration ordered by key
type ListFieldSettingsResponse struct {
	Message  string             `json:"message"`
	Settings []FieldSettingItem `json:"settings"`
}

// UpdateFieldSettingRequest changes one field's visibility or requiredness
type UpdateFieldSettingRequest struct {
	Key      string `json:"key" validate:"required,max=64"`
	Visible  bool   `json:"visible"`
	Required bool   `json:"required"`
}

// UpdateFieldSettingResponse returns the stored setting
type UpdateFieldSettingResponse struct {
	Message string           `json:"message"`
	Setting FieldSettingItem `json:"setting"`
}
