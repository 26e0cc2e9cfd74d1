package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/config"
	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/utils"
)

// FulfillmentOrder is the operator/warehouse-facing copy of a placed order.
// Orders live in a top-level table keyed by order number; the first line
// item's product is kept as anchor_product_id for fulfillment-side filters.
//
// The customer copy is an independent record, kept consistent only by
// construction at placement and by status transitions applying the same
// change to both inside one transaction. sync_version moves in lockstep on
// both copies so divergence is detectable.
type FulfillmentOrder struct {
	ID              int                `gorm:"primary_key" json:"id"`
	OrderNumber     string             `gorm:"size:64;not null;uniqueIndex" json:"order_number"`
	CustomerId      string             `gorm:"size:64;index;not null" json:"customer_id"`
	AnchorProductId int                `gorm:"index" json:"anchor_product_id"`
	CustomerOrderId int                `gorm:"index" json:"customer_order_id"`
	CurrentStatus   OrderStatus        `gorm:"type:enum('Pending','Processing','Shipped','Delivered','Completed','Cancelled');not null" json:"current_status"`
	Subtotal        decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	ShippingFee     decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"shipping_fee"`
	Tax             decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"tax"`
	Total           decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"total"`
	ShippingMethod  ShippingMethod     `gorm:"size:20;not null" json:"shipping_method"`
	PaymentMethod   PaymentMethod      `gorm:"size:30;not null" json:"payment_method"`
	PaymentStatus   PaymentStatus      `gorm:"size:20;not null" json:"payment_status"`
	Delivery        AddressDetails     `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery"`
	Billing         AddressDetails     `gorm:"embedded;embeddedPrefix:billing_" json:"billing"`
	SyncVersion     int                `gorm:"not null;default:1" json:"sync_version"`
	Items           []OrderItem        `gorm:"polymorphic:Owner" json:"items"`
	StatusHistory   []OrderStatusEvent `gorm:"foreignKey:FulfillmentOrderId" json:"status_history"`
	CreatedAt       time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

// CustomerOrder is the actor-facing copy of the same order.
type CustomerOrder struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	OrderNumber        string          `gorm:"size:64;not null;uniqueIndex" json:"order_number"`
	CustomerId         string          `gorm:"size:64;index;not null" json:"customer_id"`
	FulfillmentOrderId int             `gorm:"index" json:"fulfillment_order_id"`
	CurrentStatus      OrderStatus     `gorm:"type:enum('Pending','Processing','Shipped','Delivered','Completed','Cancelled');not null" json:"current_status"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	ShippingFee        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"shipping_fee"`
	Tax                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax"`
	Total              decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	ShippingMethod     ShippingMethod  `gorm:"size:20;not null" json:"shipping_method"`
	PaymentMethod      PaymentMethod   `gorm:"size:30;not null" json:"payment_method"`
	PaymentStatus      PaymentStatus   `gorm:"size:20;not null" json:"payment_status"`
	Delivery           AddressDetails  `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery"`
	Billing            AddressDetails  `gorm:"embedded;embeddedPrefix:billing_" json:"billing"`
	OrderReceived      *bool           `gorm:"not null;default:false" json:"order_received"`
	ActionCompleted    *bool           `gorm:"not null;default:false" json:"action_completed"`
	Rating             int             `gorm:"default:0" json:"rating"`
	Feedback           string          `gorm:"type:text" json:"feedback"`
	DeliveredAt        *time.Time      `json:"delivered_at"`
	SyncVersion        int             `gorm:"not null;default:1" json:"sync_version"`
	Items              []OrderItem     `gorm:"polymorphic:Owner" json:"items"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type OrderItem struct {
	ID         int             `gorm:"primary_key" json:"id"`
	OwnerId    int             `gorm:"index:idx_order_item_owner" json:"owner_id"`
	OwnerType  string          `gorm:"size:50;index:idx_order_item_owner" json:"owner_type"`
	ProductId  int             `gorm:"index" json:"product_id"`
	VariantKey string          `gorm:"size:100" json:"variant_key"`
	Name       string          `gorm:"size:255;not null" json:"name"`
	ImageUrl   string          `gorm:"size:512" json:"image_url"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Quantity   int             `gorm:"not null;default:1" json:"quantity"`
	Size       string          `gorm:"size:20" json:"size"`
	Color      string          `gorm:"size:50" json:"color"`
}

type OrderStatusEvent struct {
	ID                 int         `gorm:"primary_key" json:"id"`
	FulfillmentOrderId int         `gorm:"index;not null" json:"fulfillment_order_id"`
	Status             OrderStatus `gorm:"size:20;not null" json:"status"`
	Note               string      `gorm:"size:255" json:"note"`
	CreatedAt          time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

func copyOrderItems(items []OrderItem) []OrderItem {
	out := make([]OrderItem, len(items))
	for i, item := range items {
		out[i] = OrderItem{
			ProductId:  item.ProductId,
			VariantKey: item.VariantKey,
			Name:       item.Name,
			ImageUrl:   item.ImageUrl,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
			Size:       item.Size,
			Color:      item.Color,
		}
	}
	return out
}

// PlaceOrder turns an OrderSnapshot into the persisted order pair inside a
// single transaction: the affected product rows are locked up front (the
// read set is known from the snapshot), each size bucket is decremented
// under a stock guard, both order copies are created with mutual
// references, the ordered cart rows are removed, and an outbox record is
// queued for post-commit reconciliation. Either everything commits or
// nothing is observable.
func PlaceOrder(ctx context.Context, snapshot *OrderSnapshot) (*FulfillmentOrder, *CustomerOrder, error) {
	db := config.GetDB()

	if snapshot == nil || len(snapshot.Items) == 0 {
		return nil, nil, utils.ErrorInvalidOrder
	}
	if snapshot.CustomerId == "" {
		return nil, nil, errors.New("customer id is required")
	}

	var productIds []int
	seen := make(map[int]bool)
	for _, item := range snapshot.Items {
		if !seen[item.ProductId] {
			seen[item.ProductId] = true
			productIds = append(productIds, item.ProductId)
		}
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, nil, fmt.Errorf("%w: %v", utils.ErrorTransactionFailed, tx.Error)
	}

	products, err := lockProductsForUpdate(tx.WithContext(ctx), productIds)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	var variantKeys []string
	for _, item := range snapshot.Items {
		product, ok := products[item.ProductId]
		if !ok {
			tx.Rollback()
			return nil, nil, fmt.Errorf("%w: product %d not found", utils.ErrorInvalidOrder, item.ProductId)
		}
		if err := decrementSizeStock(tx.WithContext(ctx), product, item.Size, decimal.NewFromInt(int64(item.Quantity))); err != nil {
			tx.Rollback()
			return nil, nil, err
		}
		variantKeys = append(variantKeys, item.VariantKey)
	}

	fulfillmentOrder := FulfillmentOrder{
		OrderNumber:     snapshot.OrderNumber,
		CustomerId:      snapshot.CustomerId,
		AnchorProductId: snapshot.Items[0].ProductId,
		CurrentStatus:   OrderStatusPending,
		Subtotal:        snapshot.Subtotal,
		ShippingFee:     snapshot.ShippingFee,
		Tax:             snapshot.Tax,
		Total:           snapshot.Total,
		ShippingMethod:  snapshot.ShippingMethod,
		PaymentMethod:   snapshot.PaymentMethod,
		PaymentStatus:   snapshot.PaymentStatus,
		Delivery:        snapshot.Delivery,
		Billing:         snapshot.Billing,
		SyncVersion:     1,
		Items:           copyOrderItems(snapshot.Items),
		StatusHistory: []OrderStatusEvent{
			{Status: OrderStatusPending, Note: "order placed"},
		},
	}
	if err := tx.WithContext(ctx).Create(&fulfillmentOrder).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	customerOrder := CustomerOrder{
		OrderNumber:        snapshot.OrderNumber,
		CustomerId:         snapshot.CustomerId,
		FulfillmentOrderId: fulfillmentOrder.ID,
		CurrentStatus:      OrderStatusPending,
		Subtotal:           snapshot.Subtotal,
		ShippingFee:        snapshot.ShippingFee,
		Tax:                snapshot.Tax,
		Total:              snapshot.Total,
		ShippingMethod:     snapshot.ShippingMethod,
		PaymentMethod:      snapshot.PaymentMethod,
		PaymentStatus:      snapshot.PaymentStatus,
		Delivery:           snapshot.Delivery,
		Billing:            snapshot.Billing,
		OrderReceived:      utils.NewFalse(),
		ActionCompleted:    utils.NewFalse(),
		SyncVersion:        1,
		Items:              copyOrderItems(snapshot.Items),
	}
	if err := tx.WithContext(ctx).Create(&customerOrder).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	// close the cross-reference loop
	if err := tx.WithContext(ctx).Model(&fulfillmentOrder).
		Update("CustomerOrderId", customerOrder.ID).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	fulfillmentOrder.CustomerOrderId = customerOrder.ID

	if err := removeOrderedCartItems(tx.WithContext(ctx), snapshot.CustomerId, variantKeys); err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	if err := queueOutboxRecord(tx.WithContext(ctx), OutboxReferenceTypeOrderPlaced, fulfillmentOrder.ID, snapshot.OrderNumber); err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, fmt.Errorf("%w: %v", utils.ErrorTransactionFailed, err)
	}

	invalidateCartCache(snapshot.CustomerId)

	return &fulfillmentOrder, &customerOrder, nil
}

func GetCustomerOrders(ctx context.Context) ([]*CustomerOrder, error) {
	customerId, ok := utils.GetCustomerIdFromContext(ctx)
	if !ok || customerId == "" {
		return nil, errors.New("customer id is required")
	}

	db := config.GetDB()
	var results []*CustomerOrder
	err := db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerId).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetCustomerOrder(ctx context.Context, orderNumber string) (*CustomerOrder, error) {
	customerId, ok := utils.GetCustomerIdFromContext(ctx)
	if !ok || customerId == "" {
		return nil, errors.New("customer id is required")
	}

	db := config.GetDB()
	var result CustomerOrder
	err := db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ? AND order_number = ?", customerId, orderNumber).
		First(&result).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

// GetFulfillmentOrders lists orders for the operator view, optionally
// filtered by status or by a product appearing in the order.
func GetFulfillmentOrders(ctx context.Context, status *OrderStatus, productId *int) ([]*FulfillmentOrder, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Items").Preload("StatusHistory")

	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("current_status = ?", *status)
	}
	if productId != nil && *productId > 0 {
		dbCtx = dbCtx.Where(
			"id IN (SELECT owner_id FROM order_items WHERE owner_type = ? AND product_id = ?)",
			"fulfillment_orders", *productId,
		)
	}

	var results []*FulfillmentOrder
	err := dbCtx.Order("created_at DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetFulfillmentOrder(ctx context.Context, orderNumber string) (*FulfillmentOrder, error) {
	db := config.GetDB()
	var result FulfillmentOrder
	err := db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory").
		Where("order_number = ?", orderNumber).
		First(&result).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

// lockOrderPairForChange reads both copies of an order FOR UPDATE so a
// status transition is applied against the current state, not a stale view.
func lockOrderPairForChange(tx *gorm.DB, orderNumber string) (*FulfillmentOrder, *CustomerOrder, error) {
	var fulfillmentOrder FulfillmentOrder
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_number = ?", orderNumber).
		First(&fulfillmentOrder).Error; err != nil {
		return nil, nil, utils.ErrorRecordNotFound
	}

	var customerOrder CustomerOrder
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&customerOrder).Error; err != nil {
		return nil, nil, utils.ErrorRecordNotFound
	}

	return &fulfillmentOrder, &customerOrder, nil
}
