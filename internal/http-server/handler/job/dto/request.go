package dto

type ParametersRequest struct {
	Width               int  `json:"width" validate:"gte=0"`
	Height              int  `json:"height" validate:"gte=0"`
	MaintainAspectRatio bool `json:"maintain_aspect_ratio"`
	Quality             int  `json:"quality" validate:"min=1,max=100"`
	MaxSizeKB           int  `json:"max_size_kb" validate:"gte=0"`
}

type UIRequest struct {
	Dragging bool `json:"dragging"`
}
