// internal/workers/admin/activate-overlay/models.go
package activateoverlay

import "encoding/json"

type Input struct {
	Overlay   json.RawMessage `json:"overlay"`
	UpdatedBy string          `json:"updatedBy,omitempty"`
	Comment   string          `json:"comment,omitempty"`
}

type Output struct {
	OverlayID   string `json:"overlayId"`
	ActivatedAt string `json:"activatedAt"` // ISO 8601
	Deactivated int    `json:"deactivated"` // previously active overlays retired
}
