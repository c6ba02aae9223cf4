package model

import "time"

// Rollup metric names
const (
	MetricOccupancyRate  = "occupancy_rate"
	MetricCollectionRate = "collection_rate"
)

// RollupResponse is a single derived metric for an owner, computed on
// demand from the current tracking snapshot.
type RollupResponse struct {
	OwnerID    string    `json:"owner_id"`
	Metric     string    `json:"metric"`
	Value      float64   `json:"value"`
	SampleSize int       `json:"sample_size"`
	ComputedAt time.Time `json:"computed_at"`
}
