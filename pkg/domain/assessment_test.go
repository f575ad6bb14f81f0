package domain_test

import (
	"testing"

	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score int
		want  domain.Level
	}{
		{100, domain.LevelAdvanced},
		{90, domain.LevelAdvanced},
		{89, domain.LevelUpperIntermediate},
		{80, domain.LevelUpperIntermediate},
		{75, domain.LevelUpperIntermediate},
		{74, domain.LevelIntermediate},
		{60, domain.LevelIntermediate},
		{59, domain.LevelPreIntermediate},
		{45, domain.LevelPreIntermediate},
		{44, domain.LevelElementary},
		{30, domain.LevelElementary},
		{29, domain.LevelBeginner},
		{0, domain.LevelBeginner},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.LevelFor(tt.score), "score %d", tt.score)
	}
}

func TestAssessment_Status(t *testing.T) {
	var a domain.Assessment
	assert.False(t, a.IsActive())
	assert.False(t, a.IsCompleted())

	a.Status = domain.StatusActive
	assert.True(t, a.IsActive())

	a.Status = domain.StatusCompleted
	assert.False(t, a.IsActive())
	assert.True(t, a.IsCompleted())
}
