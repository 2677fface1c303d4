package callsession

type StartSessionRequest struct {
	PhoneNumber string `json:"phone_number" validate:"omitempty,e164"`
}

type ListSessionsQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=200"`
}
