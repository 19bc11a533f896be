package maturity

// Answer values for level questions. An empty string means unanswered.
const (
	AnswerTrue  = "VERDADERO"
	AnswerFalse = "FALSO"
)

// Level status labels shown to operators.
const (
	StatusPending  = "Pendiente"
	StatusAnswered = "Respondido (en cálculo)"
	StatusReview   = "Revisión requerida"
)

// LevelState carries the answers and workflow flags for one level of one
// dimension. A level only contributes to the dimension score while
// InCalculation is set.
type LevelState struct {
	Answer        string         `json:"respuesta"`
	Answers       map[int]string `json:"respuestas_preguntas"`
	Evidence      string         `json:"evidencia"`
	Evidences     map[int]string `json:"evidencias_preguntas"`
	Status        string         `json:"estado"`
	AutoStatus    string         `json:"estado_auto"`
	InCalculation bool           `json:"en_calculo"`
	NeedsReview   bool           `json:"marcado_revision"`
	Editing       bool           `json:"editando"`

	// saved holds the last committed answers so an edit can be cancelled.
	saved *levelSnapshot
}

type levelSnapshot struct {
	answer        string
	answers       map[int]string
	evidence      string
	evidences     map[int]string
	status        string
	autoStatus    string
	inCalculation bool
}

// State is a full in-progress evaluation: level state per dimension.
type State struct {
	Levels map[string]map[int]*LevelState `json:"niveles"`
}

// NewState builds the default state for every dimension and level in the
// catalog: everything unanswered, unlocked and pending.
func NewState(catalog *Catalog) *State {
	s := &State{Levels: make(map[string]map[int]*LevelState, len(catalog.Dimensions))}
	for _, dim := range catalog.Dimensions {
		levels := make(map[int]*LevelState, len(dim.Levels))
		for _, level := range dim.Levels {
			ls := &LevelState{
				Answer:     AnswerFalse,
				Answers:    make(map[int]string, len(level.Questions)),
				Evidences:  make(map[int]string, len(level.Questions)),
				Status:     StatusPending,
				AutoStatus: StatusPending,
				Editing:    true,
			}
			for idx := range level.Questions {
				ls.Answers[idx+1] = AnswerFalse
				ls.Evidences[idx+1] = ""
			}
			levels[level.Level] = ls
		}
		s.Levels[dim.ID] = levels
	}
	return s
}

// Level returns the state for a dimension level, or nil when unknown.
func (s *State) Level(dimensionID string, level int) *LevelState {
	levels, ok := s.Levels[dimensionID]
	if !ok {
		return nil
	}
	return levels[level]
}

func (ls *LevelState) refreshStatus() {
	if ls.NeedsReview {
		ls.Status = StatusReview
		return
	}
	ls.Status = ls.AutoStatus
}

func (ls *LevelState) snapshot() *levelSnapshot {
	snap := &levelSnapshot{
		answer:        ls.Answer,
		answers:       make(map[int]string, len(ls.Answers)),
		evidence:      ls.Evidence,
		evidences:     make(map[int]string, len(ls.Evidences)),
		status:        ls.Status,
		autoStatus:    ls.AutoStatus,
		inCalculation: ls.InCalculation,
	}
	for k, v := range ls.Answers {
		snap.answers[k] = v
	}
	for k, v := range ls.Evidences {
		snap.evidences[k] = v
	}
	return snap
}

func (ls *LevelState) restore(snap *levelSnapshot) {
	ls.Answer = snap.answer
	ls.Evidence = snap.evidence
	ls.AutoStatus = snap.autoStatus
	ls.InCalculation = snap.inCalculation
	ls.Answers = make(map[int]string, len(snap.answers))
	for k, v := range snap.answers {
		ls.Answers[k] = v
	}
	ls.Evidences = make(map[int]string, len(snap.evidences))
	for k, v := range snap.evidences {
		ls.Evidences[k] = v
	}
	ls.refreshStatus()
}
