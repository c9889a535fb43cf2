package valueobjects

import "fmt"

// Stage is a Kanban column. A ticket's status is always one of the stages.
type Stage string

const (
	StageToDo       Stage = "To Do"
	StageInProgress Stage = "In Progress"
	StageReview     Stage = "Review"
	StageDone       Stage = "Done"
)

var orderedStages = []Stage{
	StageToDo,
	StageInProgress,
	StageReview,
	StageDone,
}

var validStages = map[Stage]bool{
	StageToDo:       true,
	StageInProgress: true,
	StageReview:     true,
	StageDone:       true,
}

// Stages returns the board columns in display order.
func Stages() []Stage {
	stages := make([]Stage, len(orderedStages))
	copy(stages, orderedStages)
	return stages
}

// StageNames returns the stage values as plain strings, in display order.
func StageNames() []string {
	names := make([]string, len(orderedStages))
	for i, s := range orderedStages {
		names[i] = string(s)
	}
	return names
}

func (s Stage) String() string {
	return string(s)
}

func (s Stage) IsValid() bool {
	return validStages[s]
}

// Index returns the column position of the stage, or -1 when unknown.
func (s Stage) Index() int {
	for i, stage := range orderedStages {
		if stage == s {
			return i
		}
	}
	return -1
}

func (s Stage) IsDone() bool {
	return s == StageDone
}

func NewStage(s string) (Stage, error) {
	stage := Stage(s)
	if !stage.IsValid() {
		return "", fmt.Errorf("invalid stage: %s", s)
	}
	return stage, nil
}
