package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/config"
	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/models"
	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/utils"
	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/workflow"
)

func requireCustomer(c *gin.Context) (string, bool) {
	customerId, ok := utils.GetCustomerIdFromContext(c.Request.Context())
	if !ok || customerId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return customerId, true
}

func requireOperator(c *gin.Context) bool {
	if isOperator, _ := utils.GetIsOperatorFromContext(c.Request.Context()); !isOperator {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "operator access required"})
		return false
	}
	return true
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrorIllegalTransition),
		errors.Is(err, utils.ErrorStockExceeded),
		errors.Is(err, utils.ErrorInvalidOrder):
		return http.StatusConflict
	case errors.Is(err, utils.ErrorTransactionFailed):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func listProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := models.GetProducts(c.Request.Context())
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func getProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}
		product, err := models.GetProduct(c.Request.Context(), id)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func listProductReviewsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}
		reviews, err := models.GetProductReviews(c.Request.Context(), id)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, reviews)
	}
}

func createProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireOperator(c) {
			return
		}
		var input models.NewProduct
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		product, err := models.CreateProduct(c.Request.Context(), &input)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

func getCartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireCustomer(c); !ok {
			return
		}
		items, err := models.GetCartItems(c.Request.Context())
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func addToCartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireCustomer(c); !ok {
			return
		}
		var input models.NewCartItem
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		item, err := models.AddToCart(c.Request.Context(), &input)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

type updateCartQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func updateCartQuantityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireCustomer(c); !ok {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cart item id"})
			return
		}
		var req updateCartQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		item, err := models.UpdateCartQuantity(c.Request.Context(), id, req.Quantity)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func removeFromCartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireCustomer(c); !ok {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cart item id"})
			return
		}
		item, err := models.RemoveFromCart(c.Request.Context(), id)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// checkoutHandler runs the placement pipeline end to end: validate the
// checkout form, assemble the order snapshot from the cart, then commit the
// placement transaction. Field-level validation problems come back as a 422
// with a field->message map.
func checkoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireCustomer(c); !ok {
			return
		}
		var input models.NewCheckout
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		snapshot, fieldErrors, err := models.AssembleOrder(c.Request.Context(), &input)
		if len(fieldErrors) > 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"field_errors": fieldErrors})
			return
		}
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		_, customerOrder, err := models.PlaceOrder(c.Request.Context(), snapshot)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, customerOrder)
	}
}

func listCustomerOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireCustomer(c); !ok {
			return
		}
		orders, err := models.GetCustomerOrders(c.Request.Context())
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func getCustomerOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireCustomer(c); !ok {
			return
		}
		order, err := models.GetCustomerOrder(c.Request.Context(), c.Param("orderNumber"))
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func cancelOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireCustomer(c); !ok {
			return
		}
		order, err := models.CancelOrder(c.Request.Context(), c.Param("orderNumber"))
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func markReceivedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireCustomer(c); !ok {
			return
		}
		order, err := models.MarkOrderReceived(c.Request.Context(), c.Param("orderNumber"))
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func rateOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireCustomer(c); !ok {
			return
		}
		var input models.RateOrderInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		order, err := models.RateOrder(c.Request.Context(), c.Param("orderNumber"), &input)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func returnOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireCustomer(c); !ok {
			return
		}
		var input models.ReturnOrderInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		order, err := models.ReturnOrder(c.Request.Context(), c.Param("orderNumber"), &input)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func listFulfillmentOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireOperator(c) {
			return
		}
		var status *models.OrderStatus
		if s := strings.TrimSpace(c.Query("status")); s != "" {
			value := models.OrderStatus(s)
			if !value.IsValid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
				return
			}
			status = &value
		}
		var productId *int
		if p := strings.TrimSpace(c.Query("product_id")); p != "" {
			id, err := strconv.Atoi(p)
			if err != nil || id <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
				return
			}
			productId = &id
		}
		orders, err := models.GetFulfillmentOrders(c.Request.Context(), status, productId)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

type updateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

func updateOrderStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireOperator(c) {
			return
		}
		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		order, err := models.UpdateOrderStatus(c.Request.Context(), c.Param("orderNumber"), req.Status, req.Note)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func getSalesSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireOperator(c) {
			return
		}
		period := models.SummaryPeriod(strings.ToUpper(strings.TrimSpace(c.Query("period"))))
		if period != models.SummaryPeriodWeekly && period != models.SummaryPeriodMonthly {
			c.JSON(http.StatusBadRequest, gin.H{"error": "period must be W or M"})
			return
		}
		bucketKey := strings.TrimSpace(c.Query("bucket"))
		if bucketKey == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bucket is required"})
			return
		}
		summary, err := models.GetSalesSummary(c.Request.Context(), period, bucketKey)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

type reconcileOrdersRequest struct {
	Repair bool `json:"repair"`
}

func reconcileOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireOperator(c) {
			return
		}
		var req reconcileOrdersRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
				return
			}
		}
		findings, err := workflow.CheckOrderPairDivergence(c.Request.Context(), config.GetDB(), config.GetLogger(), req.Repair)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"diverged": len(findings), "findings": findings})
	}
}

func verifyStockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireOperator(c) {
			return
		}
		findings, err := workflow.VerifyStockConsistency(c.Request.Context(), config.GetDB())
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"drifted": len(findings), "findings": findings})
	}
}

type demoTokenRequest struct {
	CustomerId string `json:"customer_id" binding:"required"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

// demoTokenHandler issues a signed token for local/dev use. There is no
// account store; identity is whatever the caller claims.
func demoTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req demoTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if req.Email != "" && !utils.IsValidEmail(req.Email) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
			return
		}
		role := req.Role
		if role != "operator" {
			role = "customer"
		}
		token, err := utils.JwtGenerate(req.CustomerId, req.Email, role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}
