package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTeam(t *testing.T) {
	tests := []struct {
		input string
		want  Team
	}{
		{"A", TeamA},
		{"a", TeamA},
		{"teamA", TeamA},
		{"Team A", TeamA},
		{"B", TeamB},
		{"b", TeamB},
		{"teamB", TeamB},
		{"Team B", TeamB},
		{"", TeamA},
		{"C", TeamA},
		{"whatever", TeamA},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, ParseTeam(tt.input), "ParseTeam(%q)", tt.input)
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  Role
		known bool
	}{
		{"teamA", RoleTeamA, true},
		{"TEAMA", RoleTeamA, true},
		{"a", RoleTeamA, true},
		{"teamB", RoleTeamB, true},
		{"b", RoleTeamB, true},
		{"observer", RoleObserver, true},
		{"Observer", RoleObserver, true},
		{"", RoleNone, false},
		{"judge", RoleNone, false},
	}
	for _, tt := range tests {
		role, known := ParseRole(tt.input)
		assert.Equalf(t, tt.want, role, "ParseRole(%q)", tt.input)
		assert.Equalf(t, tt.known, known, "ParseRole(%q) known", tt.input)
	}
}

func TestValidArguments(t *testing.T) {
	args := []Argument{
		{UserID: "u1", Team: "A", Message: "first point"},
		{UserID: "", Team: "A", Message: "no user"},
		{UserID: "u2", Team: "", Message: "no team"},
		{UserID: "u3", Team: "B", Message: "   "},
		{UserID: "u4", Team: "B", Message: "  trimmed  "},
	}

	valid := ValidArguments(args)
	assert.Len(t, valid, 2)
	assert.Equal(t, "first point", valid[0].Message)
	assert.Equal(t, "trimmed", valid[1].Message)
}

func TestHasSentinelVerdict(t *testing.T) {
	assert.False(t, (&Debate{}).HasSentinelVerdict())
	assert.False(t, (&Debate{Winner: "Team A"}).HasSentinelVerdict())
	assert.True(t, (&Debate{Winner: WinnerAnalysisPending}).HasSentinelVerdict())
	assert.True(t, (&Debate{Winner: WinnerAnalysisFailed}).HasSentinelVerdict())
}

func TestRosterHelpers(t *testing.T) {
	d := &Debate{
		MaxParticipantsA: 2,
		MaxParticipantsB: 2,
		Participants: []Participant{
			{UserID: "u1", Team: TeamA},
			{UserID: "u2", Team: TeamA},
			{UserID: "u3", Team: TeamB},
		},
		Observers: []Observer{{UserID: "u4"}},
	}

	assert.True(t, d.IsParticipant("u1"))
	assert.False(t, d.IsParticipant("u4"))
	assert.True(t, d.IsObserver("u4"))
	assert.False(t, d.IsObserver("u1"))
	assert.Equal(t, 2, d.TeamSize(TeamA))
	assert.Equal(t, 1, d.TeamSize(TeamB))
}
