package models

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "cash-on-delivery"
	PaymentMethodWalletDemo     PaymentMethod = "wallet-demo"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "Pending"
	PaymentStatusPaid     PaymentStatus = "Paid"
	PaymentStatusRefunded PaymentStatus = "Refunded"
)

type ShippingMethod string

const (
	ShippingMethodStandard ShippingMethod = "standard"
	ShippingMethodExpress  ShippingMethod = "express"
)

// SummaryPeriod is the grain of a sales summary bucket.
type SummaryPeriod string

const (
	SummaryPeriodWeekly  SummaryPeriod = "W"
	SummaryPeriodMonthly SummaryPeriod = "M"
)

type OutboxRecordStatus string

const (
	OutboxStatusPending    OutboxRecordStatus = "PENDING"
	OutboxStatusProcessing OutboxRecordStatus = "PROCESSING"
	OutboxStatusDone       OutboxRecordStatus = "DONE"
	OutboxStatusFailed     OutboxRecordStatus = "FAILED"
)

const (
	// OutboxReferenceTypeOrderPlaced is the post-commit reconciliation fan-out
	// for a freshly placed order (analytics fold + purchased counters).
	OutboxReferenceTypeOrderPlaced = "ORDER_PLACED"
)
