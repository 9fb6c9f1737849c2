package events

// Topic constants for domain events emitted by the billing core.
const (
	TopicOrderCreated        = "order.created"
	TopicOrderPaid           = "order.paid"
	TopicSubscriptionChanged = "subscription.changed"
)

// DefaultTopics returns the topics that trigger notifications.
func DefaultTopics() []string {
	return []string{TopicOrderPaid, TopicSubscriptionChanged}
}

// OrderCreated is the payload of order.created.
type OrderCreated struct {
	OrderID  string `json:"orderId"`
	StoreID  string `json:"storeId"`
	UserID   string `json:"userId"`
	Payable  int64  `json:"payable"`
	Currency string `json:"currency"`
}

// OrderPaid is the payload of order.paid.
type OrderPaid struct {
	OrderID     string `json:"orderId"`
	StoreID     string `json:"storeId"`
	UserID      string `json:"userId"`
	PaymentID   string `json:"paymentId"`
	ReferenceID string `json:"referenceId"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// SubscriptionChanged is the payload of subscription.changed.
type SubscriptionChanged struct {
	SubscriptionID string `json:"subscriptionId"`
	MerchantID     string `json:"merchantId"`
	Event          string `json:"event"`
	Plan           string `json:"plan"`
	Status         string `json:"status"`
	PreviousPlan   string `json:"previousPlan"`
	PreviousStatus string `json:"previousStatus"`
}
