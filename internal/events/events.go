// Package events provides the in-process event bus used to notify
// dashboards and background jobs about state changes.
package events

import "time"

// EventType identifies a kind of system event
type EventType string

const (
	// RankingCalculated - the Fase 0 candidate ranking was recomputed
	RankingCalculated EventType = "ranking_calculated"
	// LevelSaved - a maturity level was saved (entered calculation)
	LevelSaved EventType = "level_saved"
	// MaturitySaved - a full maturity evaluation was persisted to history
	MaturitySaved EventType = "maturity_saved"
	// EBCTSaved - an EBCT evaluation was persisted to history
	EBCTSaved EventType = "ebct_saved"
	// PortfolioReplaced - the project table was rewritten (save or import)
	PortfolioReplaced EventType = "portfolio_replaced"
	// BackupCompleted - a database backup snapshot finished
	BackupCompleted EventType = "backup_completed"
)

// Event is a published event with its payload
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// EventData is the interface that all typed event payloads implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// RankingCalculatedData contains data for RankingCalculated events
type RankingCalculatedData struct {
	Projects   int     `json:"projects"`
	Candidates int     `json:"candidates"`
	TopScore   float64 `json:"top_score"`
}

// EventType returns the event type for RankingCalculatedData
func (d *RankingCalculatedData) EventType() EventType {
	return RankingCalculated
}

// LevelSavedData contains data for LevelSaved events
type LevelSavedData struct {
	Dimension string `json:"dimension"`
	Level     int    `json:"level"`
	Achieved  int    `json:"achieved"`
}

// EventType returns the event type for LevelSavedData
func (d *LevelSavedData) EventType() EventType {
	return LevelSaved
}

// MaturitySavedData contains data for MaturitySaved events
type MaturitySavedData struct {
	ProjectID   int      `json:"project_id"`
	GlobalScore *float64 `json:"global_score"`
}

// EventType returns the event type for MaturitySavedData
func (d *MaturitySavedData) EventType() EventType {
	return MaturitySaved
}

// EBCTSavedData contains data for EBCTSaved events
type EBCTSavedData struct {
	ProjectID       int `json:"project_id"`
	Characteristics int `json:"characteristics"`
}

// EventType returns the event type for EBCTSavedData
func (d *EBCTSavedData) EventType() EventType {
	return EBCTSaved
}

// PortfolioReplacedData contains data for PortfolioReplaced events
type PortfolioReplacedData struct {
	Rows   int    `json:"rows"`
	Source string `json:"source,omitempty"` // "save", "import", "seed"
}

// EventType returns the event type for PortfolioReplacedData
func (d *PortfolioReplacedData) EventType() EventType {
	return PortfolioReplaced
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Databases int  `json:"databases"`
	Uploaded  bool `json:"uploaded"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}
