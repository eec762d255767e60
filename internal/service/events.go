package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/repository"
)

type orderEventPayload struct {
	OrderID        int64     `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	MemberID       int64     `json:"member_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	TotalAmount    string    `json:"total_amount"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// appendOrderEvent writes an outbox row in the caller's transaction, so the
// event exists if and only if the change commits.
func appendOrderEvent(ctx context.Context, q repository.Querier, eventType string, order *domain.Order, previous *domain.OrderStatus) error {
	payload := orderEventPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		MemberID:    order.MemberID,
		Status:      domain.OrderStatus(order.StatusID).String(),
		TotalAmount: order.TotalAmount.String(),
		OccurredAt:  order.UpdatedAt,
	}
	if previous != nil {
		payload.PreviousStatus = previous.String()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	return q.InsertOutboxEvent(ctx, &domain.OutboxEvent{
		AggregateID: strconv.FormatInt(order.ID, 10),
		EventType:   eventType,
		Payload:     data,
	})
}
