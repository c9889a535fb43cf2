package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Stage
		wantErr bool
		errMsg  string
	}{
		{
			name:  "valid to do stage",
			input: "To Do",
			want:  StageToDo,
		},
		{
			name:  "valid in progress stage",
			input: "In Progress",
			want:  StageInProgress,
		},
		{
			name:  "valid review stage",
			input: "Review",
			want:  StageReview,
		},
		{
			name:  "valid done stage",
			input: "Done",
			want:  StageDone,
		},
		{
			name:    "invalid stage",
			input:   "Blocked",
			wantErr: true,
			errMsg:  "invalid stage: Blocked",
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
			errMsg:  "invalid stage",
		},
		{
			name:    "case sensitive - lowercase",
			input:   "done",
			wantErr: true,
			errMsg:  "invalid stage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewStage(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStages_Order(t *testing.T) {
	assert.Equal(t, []Stage{StageToDo, StageInProgress, StageReview, StageDone}, Stages())
	assert.Equal(t, []string{"To Do", "In Progress", "Review", "Done"}, StageNames())

	for i, s := range Stages() {
		assert.Equal(t, i, s.Index())
	}
	assert.Equal(t, -1, Stage("Blocked").Index())
}

func TestStages_ReturnsCopy(t *testing.T) {
	stages := Stages()
	stages[0] = "Mutated"

	assert.Equal(t, StageToDo, Stages()[0])
}
