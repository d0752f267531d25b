package controllers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"debatehub/db"
	"debatehub/middlewares"
	"debatehub/models"
	"debatehub/services"
	"debatehub/structs"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const minTopicLength = 5

func callerIdentity(c *gin.Context) (userID, name string) {
	return c.GetString(middlewares.ContextUserID), c.GetString(middlewares.ContextUserName)
}

// CreateDebate creates a debate room with the caller auto-enrolled on team A.
func CreateDebate(c *gin.Context) {
	userID, name := callerIdentity(c)

	var request structs.CreateDebateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	topic := strings.TrimSpace(request.Topic)
	if topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Topic is required"})
		return
	}
	if len(topic) < minTopicLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Topic must be at least 5 characters"})
		return
	}

	debateType := request.Type
	if debateType == "" {
		debateType = "team"
	}
	capA, capB := request.MaxParticipantsA, request.MaxParticipantsB
	if debateType == "one-vs-one" {
		capA, capB = 1, 1
	}
	if capA <= 0 {
		capA = 4
	}
	if capB <= 0 {
		capB = 4
	}
	if name == "" {
		name = "Creator"
	}

	debate := &models.Debate{
		RoomID:           uuid.NewString(),
		Topic:            topic,
		Type:             debateType,
		MaxParticipantsA: capA,
		MaxParticipantsB: capB,
		Participants: []models.Participant{{
			UserID:      userID,
			DisplayName: name,
			Team:        models.TeamA,
		}},
		Observers: []models.Observer{},
		Arguments: []models.Argument{},
		Status:    models.StatusWaiting,
	}

	if err := db.Debates.CreateDebate(c.Request.Context(), debate); err != nil {
		log.Printf("Error creating debate room: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating debate room"})
		return
	}

	log.Printf("Debate room %s created by %s", debate.RoomID, name)
	c.JSON(http.StatusOK, gin.H{
		"message":           "Debate room created successfully",
		"roomId":            debate.RoomID,
		"topic":             debate.Topic,
		"type":              debate.Type,
		"participantsCount": len(debate.Participants),
	})
}

// JoinDebate enrolls the caller as a participant. An observer entry for the
// caller is promoted, and an invalid team falls back to team A.
func JoinDebate(c *gin.Context) {
	userID, name := callerIdentity(c)
	roomID := c.Param("roomId")

	var request structs.JoinDebateRequest
	_ = c.ShouldBindJSON(&request)

	team := models.ParseTeam(request.Team)
	displayName := strings.TrimSpace(request.DisplayName)
	if displayName == "" {
		displayName = name
	}
	if displayName == "" {
		displayName = "Participant"
	}

	participant := models.Participant{UserID: userID, DisplayName: displayName, Team: team}
	debate, err := db.Debates.AddParticipant(c.Request.Context(), roomID, participant)
	if err != nil {
		switch err {
		case db.ErrNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		case db.ErrDebateFinished:
			c.JSON(http.StatusBadRequest, gin.H{"error": "This debate has ended"})
		case db.ErrAlreadyParticipant:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Already joined as participant"})
		case db.ErrTeamFull:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Team is full"})
		default:
			log.Printf("Error joining debate %s: %v", roomID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error joining debate"})
		}
		return
	}

	log.Printf("%s joined debate %s on team %s", displayName, roomID, team)
	c.JSON(http.StatusOK, gin.H{
		"message":      "Joined as participant",
		"participants": debate.Participants,
		"team":         team,
	})
}

// ObserveDebate attaches the caller as an observer.
func ObserveDebate(c *gin.Context) {
	userID, name := callerIdentity(c)
	roomID := c.Param("roomId")

	var request structs.ObserveDebateRequest
	_ = c.ShouldBindJSON(&request)

	displayName := strings.TrimSpace(request.DisplayName)
	if displayName == "" {
		displayName = name
	}
	if displayName == "" {
		displayName = "Observer"
	}

	observer := models.Observer{UserID: userID, DisplayName: displayName}
	debate, err := db.Debates.AddObserver(c.Request.Context(), roomID, observer)
	if err != nil {
		switch err {
		case db.ErrNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		case db.ErrAlreadyParticipant:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Already joined as participant"})
		case db.ErrAlreadyObserving:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Already observing this debate"})
		default:
			log.Printf("Error observing debate %s: %v", roomID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error observing debate"})
		}
		return
	}

	log.Printf("%s is observing debate %s", displayName, roomID)
	c.JSON(http.StatusOK, gin.H{
		"message":   "Joined as observer",
		"observers": debate.Observers,
	})
}

// GetRoom returns topic, type, status and rosters for a room.
func GetRoom(c *gin.Context) {
	roomID := c.Param("roomId")

	debate, err := db.Debates.Debate(c.Request.Context(), roomID)
	if err != nil {
		if err == db.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roomId":       debate.RoomID,
		"topic":        debate.Topic,
		"type":         debate.Type,
		"status":       debate.Status,
		"participants": debate.Participants,
		"observers":    debate.Observers,
	})
}

// EndDebate finishes a debate and stores the transcript supplied by the
// caller. Only a current participant may end, and only once.
func EndDebate(c *gin.Context) {
	userID, name := callerIdentity(c)
	roomID := c.Param("roomId")

	var request structs.EndDebateRequest
	_ = c.ShouldBindJSON(&request)

	debate, err := db.Debates.Debate(c.Request.Context(), roomID)
	if err != nil {
		if err == db.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error ending debate"})
		return
	}
	if debate.Status == models.StatusFinished {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Debate already ended"})
		return
	}
	if !debate.IsParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only participants can end the debate"})
		return
	}

	args := models.ValidArguments(request.Arguments)
	finished, err := db.Debates.FinishDebate(c.Request.Context(), roomID, args, time.Now())
	if err != nil {
		if err == db.ErrDebateFinished {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Debate already ended"})
			return
		}
		log.Printf("Error ending debate %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error ending debate"})
		return
	}

	log.Printf("Debate %s ended by %s with %d arguments", roomID, name, len(finished.Arguments))
	c.JSON(http.StatusOK, gin.H{
		"message": "Debate ended successfully",
		"debate": gin.H{
			"roomId":    finished.RoomID,
			"topic":     finished.Topic,
			"status":    finished.Status,
			"arguments": finished.Arguments,
		},
	})
}

// GetDebateDetails returns the full record to anyone who joined or observed.
func GetDebateDetails(c *gin.Context) {
	userID, _ := callerIdentity(c)
	roomID := c.Param("roomId")

	debate, err := db.Debates.Debate(c.Request.Context(), roomID)
	if err != nil {
		if err == db.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Debate not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if !debate.IsParticipant(userID) && !debate.IsObserver(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You did not participate in this debate"})
		return
	}

	c.JSON(http.StatusOK, debate)
}

// AnalyzeDebate submits the stored transcript to the scoring service. Gateway
// failures never surface as transport errors: a sentinel verdict is stored and
// returned with 200 so the room stays usable and the caller can retry.
func AnalyzeDebate(c *gin.Context) {
	userID, name := callerIdentity(c)
	roomID := c.Param("roomId")

	debate, err := db.Debates.Debate(c.Request.Context(), roomID)
	if err != nil {
		if err == db.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if !debate.IsParticipant(userID) && !debate.IsObserver(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You did not participate in this debate"})
		return
	}

	if strings.TrimSpace(debate.Topic) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Debate topic missing"})
		return
	}
	args := models.ValidArguments(debate.Arguments)
	if len(args) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No arguments found for analysis"})
		return
	}

	isRetry := debate.HasSentinelVerdict()
	if isRetry {
		log.Printf("Retrying analysis for debate %s by %s", roomID, name)
	} else {
		log.Printf("Starting analysis for debate %s by %s", roomID, name)
	}

	client := services.Scoring()
	if !client.Configured() {
		verdict := models.Verdict{
			Winner:        models.WinnerAnalysisPending,
			Justification: "AI analysis service is not configured. Please set the scoring endpoint in the config.",
		}
		saveVerdict(c, roomID, verdict)
		c.JSON(http.StatusOK, gin.H{"message": "AI service not configured", "result": verdict})
		return
	}

	verdict, err := client.Score(c.Request.Context(), roomID, debate.Topic, args)
	if err != nil {
		log.Printf("Analysis failed for debate %s: %v", roomID, err)
		failure := models.Verdict{
			Winner:        models.WinnerAnalysisFailed,
			Justification: fmt.Sprintf("Analysis error: %v", err),
		}
		saveVerdict(c, roomID, failure)
		c.JSON(http.StatusOK, gin.H{"message": "AI analysis failed but debate saved", "result": failure})
		return
	}

	if err := db.Debates.SaveVerdict(c.Request.Context(), roomID, *verdict); err != nil {
		log.Printf("Error saving verdict for debate %s: %v", roomID, err)
		failure := models.Verdict{
			Winner:        models.WinnerAnalysisFailed,
			Justification: fmt.Sprintf("Analysis error: %v", err),
		}
		saveVerdict(c, roomID, failure)
		c.JSON(http.StatusOK, gin.H{"message": "AI analysis failed but debate saved", "result": failure})
		return
	}

	message := "AI analysis complete"
	if isRetry {
		message = "AI re-analysis complete"
	}
	log.Printf("Analysis complete for debate %s, winner: %s", roomID, verdict.Winner)
	c.JSON(http.StatusOK, gin.H{"message": message, "result": verdict})
}

// saveVerdict is the best-effort fallback write; the room must stay queryable
// even when the store write itself fails.
func saveVerdict(c *gin.Context, roomID string, v models.Verdict) {
	if err := db.Debates.SaveVerdict(c.Request.Context(), roomID, v); err != nil {
		log.Printf("Error saving verdict for debate %s: %v", roomID, err)
	}
}

// GetHistory lists finished debates the caller took part in, newest first.
func GetHistory(c *gin.Context) {
	userID, name := callerIdentity(c)

	debates, err := db.Debates.FinishedDebates(c.Request.Context(), userID)
	if err != nil {
		log.Printf("Error fetching history for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching history"})
		return
	}
	if debates == nil {
		debates = []models.Debate{}
	}

	log.Printf("%s requested history: %d debates found", name, len(debates))
	c.JSON(http.StatusOK, debates)
}
