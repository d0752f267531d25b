package models

import (
	"strings"
	"time"
)

// Debate statuses. A debate starts out waiting and transitions to finished
// exactly once; it never goes back.
const (
	StatusWaiting  = "waiting"
	StatusFinished = "finished"
)

// Sentinel winners stored when scoring was unavailable or failed. A debate
// carrying one of these can be re-analyzed through the normal analyze path.
const (
	WinnerAnalysisPending = "Analysis pending"
	WinnerAnalysisFailed  = "Analysis failed"
)

// Team identifies one of the two sides of a debate.
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// ParseTeam normalizes the team strings that arrive from clients ("A", "a",
// "teamA", "Team B", ...) into a canonical Team. Anything unrecognized
// defaults to team A, matching the join semantics.
func ParseTeam(s string) Team {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.TrimPrefix(normalized, "TEAM")
	normalized = strings.TrimSpace(normalized)
	if normalized == "B" {
		return TeamB
	}
	return TeamA
}

// Role is the realtime-session role a connected user holds in a room.
type Role string

const (
	RoleNone     Role = ""
	RoleTeamA    Role = "teamA"
	RoleTeamB    Role = "teamB"
	RoleObserver Role = "observer"
)

// ParseRole normalizes a role string from a realtime event. The bool reports
// whether the input named a known role.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "teama", "team a", "a":
		return RoleTeamA, true
	case "teamb", "team b", "b":
		return RoleTeamB, true
	case "observer":
		return RoleObserver, true
	}
	return RoleNone, false
}

// Participant is a user enrolled on one of the two teams.
type Participant struct {
	UserID      string `bson:"userId" json:"userId"`
	DisplayName string `bson:"displayName" json:"displayName"`
	Team        Team   `bson:"team" json:"team"`
}

// Observer is a user attached to a debate without a team.
type Observer struct {
	UserID      string `bson:"userId" json:"userId"`
	DisplayName string `bson:"displayName" json:"displayName"`
}

// Argument is a single transcript entry captured when a debate ends.
type Argument struct {
	UserID  string `bson:"userId" json:"userId"`
	Team    string `bson:"team" json:"team"`
	Message string `bson:"message" json:"message"`
}

// Verdict is the scoring outcome attached to a finished debate.
type Verdict struct {
	Winner        string  `bson:"winner" json:"winner"`
	Justification string  `bson:"justification" json:"justification"`
	ScoreTeamA    float64 `bson:"score_team_a" json:"score_team_a"`
	ScoreTeamB    float64 `bson:"score_team_b" json:"score_team_b"`
}

// Debate is the durable aggregate for a single debate room.
type Debate struct {
	RoomID           string        `bson:"roomId" json:"roomId"`
	Topic            string        `bson:"topic" json:"topic"`
	Type             string        `bson:"type" json:"type"`
	MaxParticipantsA int           `bson:"maxParticipantsA" json:"maxParticipantsA"`
	MaxParticipantsB int           `bson:"maxParticipantsB" json:"maxParticipantsB"`
	Participants     []Participant `bson:"participants" json:"participants"`
	Observers        []Observer    `bson:"observers" json:"observers"`
	Arguments        []Argument    `bson:"arguments" json:"arguments"`
	Status           string        `bson:"status" json:"status"`
	Winner           string        `bson:"winner,omitempty" json:"winner,omitempty"`
	Justification    string        `bson:"justification,omitempty" json:"justification,omitempty"`
	ScoreTeamA       float64       `bson:"score_team_a,omitempty" json:"score_team_a,omitempty"`
	ScoreTeamB       float64       `bson:"score_team_b,omitempty" json:"score_team_b,omitempty"`
	EndedAt          *time.Time    `bson:"endedAt,omitempty" json:"endedAt,omitempty"`
}

// IsParticipant reports whether userID is enrolled on either team.
func (d *Debate) IsParticipant(userID string) bool {
	for _, p := range d.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// IsObserver reports whether userID is attached as an observer.
func (d *Debate) IsObserver(userID string) bool {
	for _, o := range d.Observers {
		if o.UserID == userID {
			return true
		}
	}
	return false
}

// TeamSize counts the participants enrolled on the given team.
func (d *Debate) TeamSize(team Team) int {
	n := 0
	for _, p := range d.Participants {
		if p.Team == team {
			n++
		}
	}
	return n
}

// HasSentinelVerdict reports whether the stored winner is one of the
// placeholder values written when scoring was unconfigured or failed. A
// subsequent analyze call is surfaced to the caller as a re-analysis.
func (d *Debate) HasSentinelVerdict() bool {
	return d.Winner == WinnerAnalysisPending || d.Winner == WinnerAnalysisFailed
}

// ValidArguments drops transcript entries missing a user, team or message.
// Malformed entries are discarded rather than failing the whole transcript.
func ValidArguments(args []Argument) []Argument {
	valid := make([]Argument, 0, len(args))
	for _, a := range args {
		a.Message = strings.TrimSpace(a.Message)
		if a.UserID == "" || a.Team == "" || a.Message == "" {
			continue
		}
		valid = append(valid, a)
	}
	return valid
}
