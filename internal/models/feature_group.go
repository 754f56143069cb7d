package models

// FeatureGroup gathers features across layers under one name.
type FeatureGroup struct {
	FeatureGroupID int    `json:"featureGroupId"`
	Name           string `json:"name"`
	Stamps
}
