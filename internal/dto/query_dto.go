package dto

import "github.com/finlens/finlens_backend/internal/core/domain"

// AskRequest is the body of a natural-language query.
type AskRequest struct {
	Question string `json:"question" binding:"required,min=3,max=2000"`
}

// AskResponse is the non-streaming answer shape.
type AskResponse struct {
	Response     string   `json:"response"`
	RowsReturned int      `json:"rows_returned"`
	Months       []string `json:"months"`
	TokensIn     int      `json:"tokens_in"`
	TokensOut    int      `json:"tokens_out"`
	Coverage     float64  `json:"coverage"`
}

// ToAskResponse converts a domain answer to the API shape.
func ToAskResponse(answer *domain.QueryAnswer) AskResponse {
	months := answer.Months
	if months == nil {
		months = []string{}
	}
	return AskResponse{
		Response:     answer.Response,
		RowsReturned: answer.RowsReturned,
		Months:       months,
		TokensIn:     answer.TokensIn,
		TokensOut:    answer.TokensOut,
		Coverage:     answer.Coverage,
	}
}
