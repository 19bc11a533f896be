package ebct

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Status is the tri-state compliance score of a characteristic.
type Status float64

const (
	StatusNotMet  Status = 0
	StatusPartial Status = 0.5
	StatusMet     Status = 1
)

// Valid reports whether the status is one of the three allowed values.
func (s Status) Valid() bool {
	return s == StatusNotMet || s == StatusPartial || s == StatusMet
}

// Label returns the operator-facing compliance label.
func (s Status) Label() string {
	switch s {
	case StatusMet:
		return "Sí cumple"
	case StatusPartial:
		return "Cumple parcialmente"
	default:
		return "No cumple"
	}
}

// ItemSummary is one characteristic inside a phase summary.
type ItemSummary struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Status         Status  `json:"status"`
	Weight         float64 `json:"weight"`
	Achieved       float64 `json:"achieved"`
	ColorPrimary   string  `json:"color_primary"`
	ColorSecondary string  `json:"color_secondary"`
}

// PhaseSummary is the aggregated completion of one phase.
type PhaseSummary struct {
	Phase      Phase         `json:"phase"`
	Items      []ItemSummary `json:"items"`
	Total      float64       `json:"total"`
	Achieved   float64       `json:"achieved"`
	Percentage float64       `json:"percentage"`
}

// Service computes phase completion from tri-state responses.
type Service struct {
	catalog *Catalog
	log     zerolog.Logger
}

// NewService creates the EBCT assessment service.
func NewService(catalog *Catalog, log zerolog.Logger) *Service {
	return &Service{
		catalog: catalog,
		log:     log.With().Str("service", "ebct").Logger(),
	}
}

// Catalog returns the assessment catalog the service was built with.
func (s *Service) Catalog() *Catalog { return s.catalog }

// ValidateResponse checks that a characteristic exists and the status is one
// of the allowed tri-state values.
func (s *Service) ValidateResponse(characteristicID int, status Status) error {
	if s.catalog.Characteristic(characteristicID) == nil {
		return fmt.Errorf("unknown characteristic %d", characteristicID)
	}
	if !status.Valid() {
		return fmt.Errorf("invalid status %v for characteristic %d", float64(status), characteristicID)
	}
	return nil
}

// PhaseSummaries computes the completion of every phase in trajectory order.
// Characteristics absent from the responses map count as not met; a phase
// with no characteristics reports 0%.
func (s *Service) PhaseSummaries(responses map[int]Status) []PhaseSummary {
	summaries := make([]PhaseSummary, 0, len(s.catalog.Phases))
	for _, phase := range s.catalog.Phases {
		summary := PhaseSummary{Phase: phase}
		for _, item := range s.catalog.ByPhase(phase.ID) {
			status := responses[item.ID]
			if !status.Valid() {
				status = StatusNotMet
			}
			achieved := item.Weight * float64(status)
			summary.Total += item.Weight
			summary.Achieved += achieved
			summary.Items = append(summary.Items, ItemSummary{
				ID:             item.ID,
				Name:           item.Name,
				Status:         status,
				Weight:         item.Weight,
				Achieved:       achieved,
				ColorPrimary:   item.ColorPrimary,
				ColorSecondary: item.ColorSecondary,
			})
		}
		if summary.Total > 0 {
			summary.Percentage = summary.Achieved / summary.Total * 100
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// GlobalPercentage is the weighted completion over every characteristic.
func (s *Service) GlobalPercentage(responses map[int]Status) float64 {
	var total, achieved float64
	for _, item := range s.catalog.Characteristics {
		status := responses[item.ID]
		if !status.Valid() {
			status = StatusNotMet
		}
		total += item.Weight
		achieved += item.Weight * float64(status)
	}
	if total == 0 {
		return 0
	}
	return achieved / total * 100
}
