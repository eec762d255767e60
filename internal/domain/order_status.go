package domain

type OrderStatus int64

const (
	OrderStatusPending    OrderStatus = 1
	OrderStatusConfirmed  OrderStatus = 2
	OrderStatusProcessing OrderStatus = 3
	OrderStatusShipped    OrderStatus = 4
	OrderStatusDelivered  OrderStatus = 5
	OrderStatusCancelled  OrderStatus = 6
	OrderStatusRefunded   OrderStatus = 7
)

var orderStatusNames = map[OrderStatus]string{
	OrderStatusPending:    "PENDING",
	OrderStatusConfirmed:  "CONFIRMED",
	OrderStatusProcessing: "PROCESSING",
	OrderStatusShipped:    "SHIPPED",
	OrderStatusDelivered:  "DELIVERED",
	OrderStatusCancelled:  "CANCELLED",
	OrderStatusRefunded:   "REFUNDED",
}

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:    "待處理",
	OrderStatusConfirmed:  "已確認",
	OrderStatusProcessing: "處理中",
	OrderStatusShipped:    "已出貨",
	OrderStatusDelivered:  "已送達",
	OrderStatusCancelled:  "已取消",
	OrderStatusRefunded:   "已退款",
}

// allowed transitions; terminal states have no entry
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusRefunded},
}

// StatusFromID returns false for ids outside the enumeration.
func StatusFromID(id int64) (OrderStatus, bool) {
	s := OrderStatus(id)
	_, ok := orderStatusNames[s]
	return s, ok
}

func (s OrderStatus) ID() int64 {
	return int64(s)
}

func (s OrderStatus) String() string {
	if n, ok := orderStatusNames[s]; ok {
		return n
	}
	return "UNKNOWN"
}

// Label is the display text shown to members.
func (s OrderStatus) Label() string {
	return orderStatusLabels[s]
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func (s OrderStatus) CanCancel() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusRefunded,
	}
}
