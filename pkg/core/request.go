package core

// CreateRequest is produced by the creation dialog. The board assigns the
// id, placement, color and rotation.
type CreateRequest struct {
	Kind    Kind   `json:"kind" validate:"required,oneof=text music"`
	Content string `json:"content" validate:"required_if=Kind text"`
	// Audio is required for music notes.
	Audio         []byte `json:"audio,omitempty" validate:"required_if=Kind music"`
	AudioMimeType string `json:"audioMimeType,omitempty"`
	// AudioName is the selected file name; it seeds the title when no other
	// title is known.
	AudioName string `json:"audioName,omitempty"`
	CoverArt  []byte `json:"coverArt,omitempty"`
}
