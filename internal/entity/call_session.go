package entity

import "time"

type CallSession struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	PhoneNumber      string     `json:"phone_number,omitempty"`
	Transcript       string     `json:"transcript"`
	CommandsExecuted []string   `json:"commands_executed"`
	StartedAt        time.Time  `json:"started_at"`
	EndedAt          *time.Time `json:"ended_at"`
}

func (s CallSession) Ended() bool {
	return s.EndedAt != nil
}
