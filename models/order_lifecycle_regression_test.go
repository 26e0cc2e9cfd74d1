package models_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/config"
	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/models"
	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/utils"
	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/workflow"
)

func driveToDelivered(t *testing.T, orderNumber string) {
	t.Helper()
	opCtx := operatorContext()
	for _, status := range []models.OrderStatus{
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
	} {
		if _, err := models.UpdateOrderStatus(opCtx, orderNumber, status, ""); err != nil {
			t.Fatalf("UpdateOrderStatus -> %s: %v", status, err)
		}
	}
}

func TestOrderStatusMachineAndRating(t *testing.T) {
	setupStorefrontEnv(t)

	ctx := customerContext("cust-1")
	opCtx := operatorContext()

	tee := seedProduct(t, ctx, "Classic Logo Tee", 500, map[string]int64{"M": 10})
	if _, err := models.AddToCart(ctx, &models.NewCartItem{ProductId: tee.ID, Quantity: 2, Size: "M"}); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	_, customerOrder := placeFromCart(t, ctx)
	orderNumber := customerOrder.OrderNumber

	// rating before delivery is rejected
	_, err := models.RateOrder(ctx, orderNumber, &models.RateOrderInput{Rating: 5})
	if !errors.Is(err, utils.ErrorIllegalTransition) {
		t.Fatalf("rate on pending order: err = %v, want illegal transition", err)
	}

	// operators cannot jump to a terminal status
	_, err = models.UpdateOrderStatus(opCtx, orderNumber, models.OrderStatusCompleted, "")
	if !errors.Is(err, utils.ErrorIllegalTransition) {
		t.Fatalf("operator -> Completed: err = %v, want illegal transition", err)
	}

	driveToDelivered(t, orderNumber)

	// delivery stamps the timestamp on the customer copy
	refreshed, err := models.GetCustomerOrder(ctx, orderNumber)
	if err != nil {
		t.Fatalf("GetCustomerOrder: %v", err)
	}
	if refreshed.DeliveredAt == nil {
		t.Fatalf("DeliveredAt not set after delivery")
	}
	// cash on delivery is captured when the order arrives
	if refreshed.PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("payment status after delivery = %s, want Paid", refreshed.PaymentStatus)
	}

	// rating still blocked until the customer confirms receipt
	_, err = models.RateOrder(ctx, orderNumber, &models.RateOrderInput{Rating: 5})
	if !errors.Is(err, utils.ErrorIllegalTransition) {
		t.Fatalf("rate before receipt: err = %v, want illegal transition", err)
	}

	if _, err := models.MarkOrderReceived(ctx, orderNumber); err != nil {
		t.Fatalf("MarkOrderReceived: %v", err)
	}

	rated, err := models.RateOrder(ctx, orderNumber, &models.RateOrderInput{Rating: 4, Feedback: "good"})
	if err != nil {
		t.Fatalf("RateOrder: %v", err)
	}
	if rated.CurrentStatus != models.OrderStatusCompleted {
		t.Fatalf("status after rating = %s, want Completed", rated.CurrentStatus)
	}
	if rated.Rating != 4 || rated.Feedback != "good" {
		t.Fatalf("rating recorded as %d/%q", rated.Rating, rated.Feedback)
	}

	// both copies completed, versions aligned
	fulfillmentOrder, err := models.GetFulfillmentOrder(ctx, orderNumber)
	if err != nil {
		t.Fatalf("GetFulfillmentOrder: %v", err)
	}
	if fulfillmentOrder.CurrentStatus != models.OrderStatusCompleted {
		t.Fatalf("fulfillment status = %s, want Completed", fulfillmentOrder.CurrentStatus)
	}
	refreshed, _ = models.GetCustomerOrder(ctx, orderNumber)
	if fulfillmentOrder.SyncVersion != refreshed.SyncVersion {
		t.Fatalf("sync versions diverge: %d vs %d", fulfillmentOrder.SyncVersion, refreshed.SyncVersion)
	}

	// the review lands on the product
	reviews, err := models.GetProductReviews(ctx, tee.ID)
	if err != nil {
		t.Fatalf("GetProductReviews: %v", err)
	}
	if len(reviews) != 1 || reviews[0].Rating != 4 {
		t.Fatalf("reviews = %+v, want one 4-star review", reviews)
	}
	product, err := models.GetProduct(ctx, tee.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if !product.AverageRating.Equal(decimal.NewFromInt(4)) || product.ReviewCount != 1 {
		t.Fatalf("product aggregates = %s/%d, want 4/1", product.AverageRating, product.ReviewCount)
	}

	// the closing action is one-shot
	_, err = models.RateOrder(ctx, orderNumber, &models.RateOrderInput{Rating: 1})
	if !errors.Is(err, utils.ErrorIllegalTransition) {
		t.Fatalf("second rate: err = %v, want illegal transition", err)
	}
	_, err = models.ReturnOrder(ctx, orderNumber, &models.ReturnOrderInput{Reason: "changed my mind"})
	if !errors.Is(err, utils.ErrorIllegalTransition) {
		t.Fatalf("return after rate: err = %v, want illegal transition", err)
	}

	// status history recorded every hop
	statuses := make([]models.OrderStatus, 0, len(fulfillmentOrder.StatusHistory))
	for _, event := range fulfillmentOrder.StatusHistory {
		statuses = append(statuses, event.Status)
	}
	want := []models.OrderStatus{
		models.OrderStatusPending,
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusCompleted,
	}
	if len(statuses) != len(want) {
		t.Fatalf("status history = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Fatalf("status history = %v, want %v", statuses, want)
		}
	}

	// no divergence to report
	findings, err := workflow.CheckOrderPairDivergence(ctx, config.GetDB(), config.GetLogger(), false)
	if err != nil {
		t.Fatalf("CheckOrderPairDivergence: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("unexpected divergence: %+v", findings)
	}
}

func TestReturnFlow(t *testing.T) {
	setupStorefrontEnv(t)

	ctx := customerContext("cust-1")
	hoodie := seedProduct(t, ctx, "Oversized Hoodie", 1250, map[string]int64{"L": 5})
	if _, err := models.AddToCart(ctx, &models.NewCartItem{ProductId: hoodie.ID, Quantity: 1, Size: "L"}); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	_, customerOrder := placeFromCart(t, ctx)

	driveToDelivered(t, customerOrder.OrderNumber)
	if _, err := models.MarkOrderReceived(ctx, customerOrder.OrderNumber); err != nil {
		t.Fatalf("MarkOrderReceived: %v", err)
	}

	returned, err := models.ReturnOrder(ctx, customerOrder.OrderNumber, &models.ReturnOrderInput{Reason: "wrong size"})
	if err != nil {
		t.Fatalf("ReturnOrder: %v", err)
	}
	if returned.CurrentStatus != models.OrderStatusCompleted {
		t.Fatalf("status after return = %s, want Completed", returned.CurrentStatus)
	}

	var record models.ReturnRecord
	if err := config.GetDB().Where("order_number = ?", customerOrder.OrderNumber).First(&record).Error; err != nil {
		t.Fatalf("fetch return record: %v", err)
	}
	if record.Reason != "wrong size" {
		t.Fatalf("return reason = %q", record.Reason)
	}
	if record.ProductId == 0 {
		t.Fatalf("return record missing product id")
	}

	// a return leaves no product review behind
	reviews, err := models.GetProductReviews(ctx, hoodie.ID)
	if err != nil {
		t.Fatalf("GetProductReviews: %v", err)
	}
	if len(reviews) != 0 {
		t.Fatalf("found %d reviews after return", len(reviews))
	}
}

func TestCancelRestoresStockOnlyFromPending(t *testing.T) {
	setupStorefrontEnv(t)

	ctx := customerContext("cust-1")
	jacket := seedProduct(t, ctx, "Work Jacket", 2100, map[string]int64{"M": 3})

	// first order: cancel while pending puts the stock back
	if _, err := models.AddToCart(ctx, &models.NewCartItem{ProductId: jacket.ID, Quantity: 2, Size: "M"}); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	_, first := placeFromCart(t, ctx)

	if got := sizeStock(t, jacket.ID, "M"); !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("stock after placement = %s, want 1", got)
	}

	cancelled, err := models.CancelOrder(ctx, first.OrderNumber)
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if cancelled.CurrentStatus != models.OrderStatusCancelled {
		t.Fatalf("status after cancel = %s, want Cancelled", cancelled.CurrentStatus)
	}
	if got := sizeStock(t, jacket.ID, "M"); !got.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("stock after cancel = %s, want 3 (restocked)", got)
	}

	// another customer cannot cancel someone else's order
	if _, err := models.AddToCart(ctx, &models.NewCartItem{ProductId: jacket.ID, Quantity: 1, Size: "M"}); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	_, second := placeFromCart(t, ctx)
	if _, err := models.CancelOrder(customerContext("cust-2"), second.OrderNumber); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("cross-customer cancel: err = %v, want record not found", err)
	}

	// once fulfillment starts, cancellation is closed
	if _, err := models.UpdateOrderStatus(operatorContext(), second.OrderNumber, models.OrderStatusProcessing, ""); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	if _, err := models.CancelOrder(ctx, second.OrderNumber); !errors.Is(err, utils.ErrorIllegalTransition) {
		t.Fatalf("cancel from Processing: err = %v, want illegal transition", err)
	}
	if got := sizeStock(t, jacket.ID, "M"); !got.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("stock = %s, want 2 (no restock on refused cancel)", got)
	}
}

func TestConcurrentCancelAndPlacement(t *testing.T) {
	setupStorefrontEnv(t)

	seedCtx := context.Background()
	tee := seedProduct(t, seedCtx, "Classic Logo Tee", 500, map[string]int64{"M": 200})

	ctxA := customerContext("cust-a")
	ctxB := customerContext("cust-b")

	rounds := 10
	for i := 0; i < rounds; i++ {
		if _, err := models.AddToCart(ctxA, &models.NewCartItem{ProductId: tee.ID, Quantity: 1, Size: "M"}); err != nil {
			t.Fatalf("AddToCart A: %v", err)
		}
		_, orderA := placeFromCart(t, ctxA)

		if _, err := models.AddToCart(ctxB, &models.NewCartItem{ProductId: tee.ID, Quantity: 1, Size: "M"}); err != nil {
			t.Fatalf("AddToCart B: %v", err)
		}
		snapB, fieldErrors, err := models.AssembleOrder(ctxB, &models.NewCheckout{
			ShippingMethod:        models.ShippingMethodStandard,
			PaymentMethod:         models.PaymentMethodCashOnDelivery,
			Delivery:              testDelivery(),
			BillingSameAsShipping: true,
		})
		if err != nil || len(fieldErrors) > 0 {
			t.Fatalf("AssembleOrder B: %v %v", err, fieldErrors)
		}

		// cancel restock and a competing placement must not deadlock each
		// other on the product/size rows
		var wg sync.WaitGroup
		var cancelErr, placeErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, cancelErr = models.CancelOrder(ctxA, orderA.OrderNumber)
		}()
		go func() {
			defer wg.Done()
			_, _, placeErr = models.PlaceOrder(ctxB, snapB)
		}()
		wg.Wait()

		if cancelErr != nil {
			t.Fatalf("round %d CancelOrder: %v", i, cancelErr)
		}
		if placeErr != nil {
			t.Fatalf("round %d PlaceOrder: %v", i, placeErr)
		}
	}

	// A's units all went back; only B's placements consumed stock
	want := int64(200 - rounds)
	if got := sizeStock(t, tee.ID, "M"); !got.Equal(decimal.NewFromInt(want)) {
		t.Fatalf("size M stock = %s, want %d", got, want)
	}
}
