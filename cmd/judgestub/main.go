// judgestub is a local stand-in for the AI scoring service. Point ai.url (or
// AI_API_URL) at it during development to exercise the full analyze flow
// without a real model behind it.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"

	"debatehub/models"

	"github.com/gin-gonic/gin"
)

type evaluateRequest struct {
	DebateID  string            `json:"DebateId"`
	Topic     string            `json:"topic"`
	Arguments []models.Argument `json:"arguments"`
}

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	flag.Parse()

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	router.POST("/evaluate", func(c *gin.Context) {
		var req evaluateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		// Crude heuristic: the team that argued more wins. Good enough to
		// drive the client through every verdict branch.
		wordsA, wordsB := 0, 0
		for _, arg := range req.Arguments {
			n := len(strings.Fields(arg.Message))
			if models.ParseTeam(arg.Team) == models.TeamA {
				wordsA += n
			} else {
				wordsB += n
			}
		}

		winner := "Team A"
		if wordsB > wordsA {
			winner = "Team B"
		} else if wordsB == wordsA {
			winner = "Tie"
		}

		log.Printf("Scored debate %s (%q): A=%d words, B=%d words", req.DebateID, req.Topic, wordsA, wordsB)
		c.JSON(http.StatusOK, gin.H{
			"winner":        winner,
			"justification": fmt.Sprintf("Team A argued %d words, Team B argued %d words.", wordsA, wordsB),
			"score_team_a":  scale(wordsA, wordsA+wordsB),
			"score_team_b":  scale(wordsB, wordsA+wordsB),
		})
	})

	log.Printf("Judge stub listening on %s", *addr)
	if err := router.Run(*addr); err != nil {
		log.Fatalf("Judge stub failed: %v", err)
	}
}

// scale maps a team's share of the debate onto a 0-10 score.
func scale(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 10
}
