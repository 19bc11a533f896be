package maturity

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// Validation failures surfaced to the caller as 422s.
var (
	ErrEvidenceRequired = errors.New("escribe los antecedentes de verificación para guardar como VERDADERO")
	ErrAnswerRequired   = errors.New("selecciona VERDADERO o FALSO para continuar")
)

// ErrUnknownLevel is returned when a dimension/level pair is not in the catalog.
var ErrUnknownLevel = errors.New("unknown dimension or level")

// Submission is one level's worth of answers sent by the operator.
type Submission struct {
	Answers        map[int]string `json:"respuestas"`
	Evidences      map[int]string `json:"evidencias"`
	ManualAnswer   string         `json:"respuesta_manual,omitempty"`
	ManualEvidence string         `json:"evidencia_manual,omitempty"`
}

// DimensionResult is the per-dimension outcome of an evaluation, ready to be
// persisted. Level is nil when the dimension has no achieved level.
type DimensionResult struct {
	Dimension string `json:"dimension"`
	Label     string `json:"etiqueta"`
	Level     *int   `json:"nivel"`
	Evidence  string `json:"evidencia"`
}

// Counts summarizes the workflow state of a dimension's levels.
type Counts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Review    int `json:"revision"`
}

// Service runs the level state machine and derives dimension scores.
type Service struct {
	catalog *Catalog
	log     zerolog.Logger
}

// NewService creates the maturity evaluation service.
func NewService(catalog *Catalog, log zerolog.Logger) *Service {
	return &Service{
		catalog: catalog,
		log:     log.With().Str("service", "maturity").Logger(),
	}
}

// Catalog returns the level catalog the service was built with.
func (s *Service) Catalog() *Catalog { return s.catalog }

// NewState builds the blank evaluation state for this catalog.
func (s *Service) NewState() *State { return NewState(s.catalog) }

// Submit records a level submission and, when valid, locks the level into the
// calculation. A true answer without evidence fails with ErrEvidenceRequired;
// a failed submission leaves the level pending and out of calculation, but the
// answers themselves are kept so the operator can complete them.
func (s *Service) Submit(state *State, dimensionID string, levelID int, sub Submission) error {
	levelDef := s.catalog.Level(dimensionID, levelID)
	ls := state.Level(dimensionID, levelID)
	if levelDef == nil || ls == nil {
		return fmt.Errorf("%w: %s level %d", ErrUnknownLevel, dimensionID, levelID)
	}

	if len(levelDef.Questions) > 0 {
		answers := normalizeAnswers(levelDef, sub.Answers)
		evidences := make(map[int]string, len(levelDef.Questions))
		var joined []string
		for idx := range levelDef.Questions {
			text := strings.TrimSpace(sub.Evidences[idx+1])
			evidences[idx+1] = text
			if text != "" {
				joined = append(joined, text)
			}
		}
		ls.Answers = answers
		ls.Evidences = evidences
		ls.Evidence = strings.Join(joined, " \n")

		if missing := missingEvidences(levelDef, answers, evidences); len(missing) > 0 {
			s.reject(ls)
			s.log.Debug().Str("dimension", dimensionID).Int("level", levelID).
				Ints("questions", missing).Msg("Level submission missing evidence")
			return ErrEvidenceRequired
		}
		ls.Answer = aggregateAnswer(levelDef, answers)
		if ls.Answer == "" {
			ls.Answer = AnswerFalse
		}
	} else {
		if sub.ManualAnswer != AnswerTrue && sub.ManualAnswer != AnswerFalse {
			ls.Answer = ""
			s.reject(ls)
			return ErrAnswerRequired
		}
		evidence := strings.TrimSpace(sub.ManualEvidence)
		if sub.ManualAnswer == AnswerTrue && evidence == "" {
			s.reject(ls)
			return ErrEvidenceRequired
		}
		ls.Answer = sub.ManualAnswer
		ls.Evidence = evidence
	}

	ls.AutoStatus = StatusAnswered
	ls.InCalculation = true
	ls.Editing = false
	ls.refreshStatus()
	ls.saved = ls.snapshot()

	s.log.Info().Str("dimension", dimensionID).Int("level", levelID).
		Str("answer", ls.Answer).Msg("Level submission accepted")
	return nil
}

// Edit unlocks a level for changes, keeping the committed answers so the edit
// can be cancelled.
func (s *Service) Edit(state *State, dimensionID string, levelID int) error {
	ls := state.Level(dimensionID, levelID)
	if ls == nil {
		return fmt.Errorf("%w: %s level %d", ErrUnknownLevel, dimensionID, levelID)
	}
	if ls.saved == nil {
		ls.saved = ls.snapshot()
	}
	ls.Editing = true
	return nil
}

// CancelEdit discards an in-progress edit and restores the last committed
// answers for the level.
func (s *Service) CancelEdit(state *State, dimensionID string, levelID int) error {
	ls := state.Level(dimensionID, levelID)
	if ls == nil {
		return fmt.Errorf("%w: %s level %d", ErrUnknownLevel, dimensionID, levelID)
	}
	if ls.saved != nil {
		ls.restore(ls.saved)
	}
	ls.Editing = !ls.InCalculation
	return nil
}

// ToggleReview flips the review flag of a level, which overrides its status
// label without touching the calculation.
func (s *Service) ToggleReview(state *State, dimensionID string, levelID int) error {
	ls := state.Level(dimensionID, levelID)
	if ls == nil {
		return fmt.Errorf("%w: %s level %d", ErrUnknownLevel, dimensionID, levelID)
	}
	ls.NeedsReview = !ls.NeedsReview
	ls.refreshStatus()
	return nil
}

// AchievedLevel walks the dimension's levels from the baseline and returns the
// highest level in an unbroken run of levels answered VERDADERO and in
// calculation. The first gap stops the walk; 0 means no level achieved.
func (s *Service) AchievedLevel(state *State, dimensionID string) int {
	dim := s.catalog.Dimension(dimensionID)
	if dim == nil || len(dim.Levels) == 0 {
		return 0
	}
	levels := make([]Level, len(dim.Levels))
	copy(levels, dim.Levels)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Level < levels[j].Level })

	baseline := levels[0].Level
	highest := baseline - 1
	for _, level := range levels {
		if level.Level != highest+1 {
			break
		}
		ls := state.Level(dimensionID, level.Level)
		if ls == nil || ls.Answer != AnswerTrue || !ls.InCalculation {
			break
		}
		highest = level.Level
	}
	if highest < baseline {
		return 0
	}
	return highest
}

// Scores returns the achieved level per dimension.
func (s *Service) Scores(state *State) map[string]int {
	scores := make(map[string]int, len(s.catalog.Dimensions))
	for _, dim := range s.catalog.Dimensions {
		scores[dim.ID] = s.AchievedLevel(state, dim.ID)
	}
	return scores
}

// GlobalScore averages the achieved levels over the dimensions that reached a
// valid level. Dimensions at 0 are excluded; ok is false when none qualify.
func (s *Service) GlobalScore(scores map[string]int) (float64, bool) {
	var levels []float64
	for _, dim := range s.catalog.Dimensions {
		if level := scores[dim.ID]; level >= 1 && level <= 9 {
			levels = append(levels, float64(level))
		}
	}
	if len(levels) == 0 {
		return 0, false
	}
	return stat.Mean(levels, nil), true
}

// Results collects the per-dimension outcome in catalog order, joining the
// evidences of the achieved run of levels.
func (s *Service) Results(state *State) []DimensionResult {
	results := make([]DimensionResult, 0, len(s.catalog.Dimensions))
	for _, dim := range s.catalog.Dimensions {
		achieved := s.AchievedLevel(state, dim.ID)
		result := DimensionResult{Dimension: dim.ID, Label: dim.Label}
		if achieved > 0 {
			level := achieved
			result.Level = &level
			var evidences []string
			for l := dim.Levels[0].Level; l <= achieved; l++ {
				if ls := state.Level(dim.ID, l); ls != nil {
					if text := strings.TrimSpace(ls.Evidence); text != "" {
						evidences = append(evidences, text)
					}
				}
			}
			result.Evidence = strings.Join(evidences, " · ")
		}
		results = append(results, result)
	}
	return results
}

// DimensionCounts summarizes a dimension's workflow state for the panel.
func (s *Service) DimensionCounts(state *State, dimensionID string) Counts {
	levels := state.Levels[dimensionID]
	counts := Counts{Total: len(levels)}
	for _, ls := range levels {
		if ls.InCalculation {
			counts.Completed++
		}
		if ls.NeedsReview {
			counts.Review++
		}
	}
	counts.Pending = counts.Total - counts.Completed
	if counts.Pending < 0 {
		counts.Pending = 0
	}
	return counts
}

// Badge labels a dimension as Completa, Parcial or Pendiente.
func Badge(counts Counts) string {
	if counts.Completed == counts.Total && counts.Review == 0 {
		return "Completa"
	}
	if counts.Completed > 0 || counts.Review > 0 {
		return "Parcial"
	}
	return "Pendiente"
}

func (s *Service) reject(ls *LevelState) {
	ls.AutoStatus = StatusPending
	ls.InCalculation = false
	ls.refreshStatus()
}

// normalizeAnswers maps each question index to VERDADERO/FALSO, or empty when
// unanswered.
func normalizeAnswers(level *Level, answers map[int]string) map[int]string {
	normalized := make(map[int]string, len(level.Questions))
	for idx := range level.Questions {
		value := answers[idx+1]
		if value != AnswerTrue && value != AnswerFalse {
			value = ""
		}
		normalized[idx+1] = value
	}
	return normalized
}

// missingEvidences lists the questions answered VERDADERO without evidence.
func missingEvidences(level *Level, answers, evidences map[int]string) []int {
	var missing []int
	for idx := range level.Questions {
		if answers[idx+1] == AnswerTrue && strings.TrimSpace(evidences[idx+1]) == "" {
			missing = append(missing, idx+1)
		}
	}
	return missing
}

// aggregateAnswer is VERDADERO only when every question is VERDADERO, FALSO
// when all are answered and at least one is FALSO, empty otherwise.
func aggregateAnswer(level *Level, answers map[int]string) string {
	if len(level.Questions) == 0 {
		return ""
	}
	all := true
	for idx := range level.Questions {
		switch answers[idx+1] {
		case AnswerTrue:
		case AnswerFalse:
			all = false
		default:
			return ""
		}
	}
	if all {
		return AnswerTrue
	}
	return AnswerFalse
}
