package models

type Layer struct {
	LayerID int    `json:"layerId"`
	Name    string `json:"name"`
	Stamps
}
