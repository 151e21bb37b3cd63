package order

import (
	"time"

	"github.com/shopspring/decimal"

	"repairshop/internal/domain"
)

const dateLayout = "2006-01-02"

type SaveOrderRequest struct {
	ClientID           int64  `json:"client_id" binding:"required"`
	PhoneModel         string `json:"phone_model" binding:"required"`
	ProblemDescription string `json:"problem_description"`
	ReceivedDate       string `json:"received_date" binding:"required"`
	CompletionDate     string `json:"completion_date"`
	Status             string `json:"status"`
	WorkCost           string `json:"work_cost"`

	Parts []PartSelectionRequest `json:"parts"`
}

type PartSelectionRequest struct {
	PartID int64  `json:"part_id" binding:"required"`
	Price  string `json:"price" binding:"required"`
}

type ClientOrderRequest struct {
	PhoneModel         string `json:"phone_model" binding:"required"`
	ProblemDescription string `json:"problem_description"`
}

func (r SaveOrderRequest) toInput(id int64) (SaveOrderInput, []PartSelection, error) {
	in := SaveOrderInput{
		ID:                 id,
		ClientID:           r.ClientID,
		PhoneModel:         r.PhoneModel,
		ProblemDescription: r.ProblemDescription,
		Status:             domain.OrderStatus(r.Status),
	}

	received, err := time.Parse(dateLayout, r.ReceivedDate)
	if err != nil {
		return in, nil, ErrValidation
	}
	in.ReceivedDate = received

	if r.CompletionDate != "" {
		completed, err := time.Parse(dateLayout, r.CompletionDate)
		if err != nil {
			return in, nil, ErrValidation
		}
		in.CompletionDate = &completed
	}

	in.WorkCost = decimal.Zero
	if r.WorkCost != "" {
		cost, err := decimal.NewFromString(r.WorkCost)
		if err != nil {
			return in, nil, ErrValidation
		}
		in.WorkCost = cost
	}

	selections := make([]PartSelection, 0, len(r.Parts))
	for _, p := range r.Parts {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return in, nil, ErrValidation
		}
		selections = append(selections, PartSelection{PartID: p.PartID, Price: price})
	}

	return in, selections, nil
}
