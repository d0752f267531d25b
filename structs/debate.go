package structs

import "debatehub/models"

type CreateDebateRequest struct {
	Topic            string `json:"topic"`
	Type             string `json:"type"`
	MaxParticipantsA int    `json:"maxParticipantsA"`
	MaxParticipantsB int    `json:"maxParticipantsB"`
}

type JoinDebateRequest struct {
	Team        string `json:"team"`
	DisplayName string `json:"displayName"`
}

type ObserveDebateRequest struct {
	DisplayName string `json:"displayName"`
}

type EndDebateRequest struct {
	Arguments []models.Argument `json:"arguments"`
}
