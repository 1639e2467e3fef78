package deal

// Stage represents the pipeline position of a Deal.
type Stage string

const (
	StageProspect    Stage = "prospect"
	StageQualified   Stage = "qualified"
	StageProposal    Stage = "proposal"
	StageNegotiation Stage = "negotiation"
	StageWon         Stage = "won"
	StageLost        Stage = "lost"
)

// IsValid returns true if the stage is one of the defined constants.
func (s Stage) IsValid() bool {
	switch s {
	case StageProspect, StageQualified, StageProposal, StageNegotiation, StageWon, StageLost:
		return true
	default:
		return false
	}
}

// IsClosed returns true for terminal stages.
func (s Stage) IsClosed() bool {
	return s == StageWon || s == StageLost
}

// String implements fmt.Stringer.
func (s Stage) String() string {
	return string(s)
}

// Filter holds optional filter criteria for listing deals.
// Zero-value fields mean "no filter" for that dimension.
type Filter struct {
	Stage     Stage
	ContactID string
	Limit     int
	Offset    int
}
