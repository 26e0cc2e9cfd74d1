package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/config"
	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/utils"
)

// CartItem is one selected variant in a customer's cart. Price, name and
// image are snapshotted at add time so a later catalog edit does not change
// what the customer agreed to pay.
type CartItem struct {
	ID         int             `gorm:"primary_key" json:"id"`
	CustomerId string          `gorm:"size:64;index;not null;uniqueIndex:idx_cart_variant" json:"customer_id"`
	VariantKey string          `gorm:"size:100;not null;uniqueIndex:idx_cart_variant" json:"variant_key"`
	ProductId  int             `gorm:"index;not null" json:"product_id"`
	Name       string          `gorm:"size:255;not null" json:"name"`
	ImageUrl   string          `gorm:"size:512" json:"image_url"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Quantity   int             `gorm:"not null;default:1" json:"quantity"`
	Size       string          `gorm:"size:20" json:"size"`
	Color      string          `gorm:"size:50" json:"color"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCartItem struct {
	ProductId int    `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// VariantKey identifies a product+size combination; duplicate adds of the
// same key merge quantities instead of creating a second row.
func VariantKey(productId int, size string) string {
	if size == "" {
		return fmt.Sprint(productId)
	}
	return fmt.Sprintf("%d-%s", productId, size)
}

func cartCacheKey(customerId string) string {
	return "cart:" + customerId
}

func invalidateCartCache(customerId string) {
	_ = config.RemoveRedisKey(cartCacheKey(customerId))
}

func AddToCart(ctx context.Context, input *NewCartItem) (*CartItem, error) {
	db := config.GetDB()

	customerId, ok := utils.GetCustomerIdFromContext(ctx)
	if !ok || customerId == "" {
		return nil, errors.New("customer id is required")
	}

	if input.Quantity < 1 {
		return nil, errors.New("quantity must be at least 1")
	}

	product, err := GetProduct(ctx, input.ProductId)
	if err != nil {
		return nil, err
	}
	if input.Size != "" {
		found := false
		for _, s := range product.Sizes {
			if s.Size == input.Size {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("product %q has no size %q", product.Name, input.Size)
		}
	}

	variantKey := VariantKey(input.ProductId, input.Size)

	var item CartItem
	err = db.WithContext(ctx).
		Where("customer_id = ? AND variant_key = ?", customerId, variantKey).
		First(&item).Error
	if err == nil {
		// merge duplicate variant
		if err := db.WithContext(ctx).Model(&item).
			Update("quantity", gorm.Expr("quantity + ?", input.Quantity)).Error; err != nil {
			return nil, err
		}
		item.Quantity += input.Quantity
		invalidateCartCache(customerId)
		return &item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	item = CartItem{
		CustomerId: customerId,
		VariantKey: variantKey,
		ProductId:  product.ID,
		Name:       product.Name,
		ImageUrl:   product.ImageUrl,
		UnitPrice:  product.UnitPrice,
		Quantity:   input.Quantity,
		Size:       input.Size,
		Color:      input.Color,
	}
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}

	invalidateCartCache(customerId)
	return &item, nil
}

func UpdateCartQuantity(ctx context.Context, cartItemId int, quantity int) (*CartItem, error) {
	customerId, ok := utils.GetCustomerIdFromContext(ctx)
	if !ok || customerId == "" {
		return nil, errors.New("customer id is required")
	}

	if quantity < 1 {
		return nil, errors.New("quantity must be at least 1")
	}

	item, err := utils.FetchCustomerModel[CartItem](ctx, customerId, cartItemId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(item).Update("quantity", quantity).Error; err != nil {
		return nil, err
	}
	item.Quantity = quantity

	invalidateCartCache(customerId)
	return item, nil
}

func RemoveFromCart(ctx context.Context, cartItemId int) (*CartItem, error) {
	customerId, ok := utils.GetCustomerIdFromContext(ctx)
	if !ok || customerId == "" {
		return nil, errors.New("customer id is required")
	}

	item, err := utils.FetchCustomerModel[CartItem](ctx, customerId, cartItemId)
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(item).Error; err != nil {
		return nil, err
	}

	invalidateCartCache(customerId)
	return item, nil
}

func GetCartItems(ctx context.Context) ([]*CartItem, error) {
	customerId, ok := utils.GetCustomerIdFromContext(ctx)
	if !ok || customerId == "" {
		return nil, errors.New("customer id is required")
	}

	var items []*CartItem
	if found, err := config.GetRedisObject(cartCacheKey(customerId), &items); err == nil && found {
		return items, nil
	}

	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerId).
		Order("created_at").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	_ = config.SetRedisObject(cartCacheKey(customerId), items, 10*time.Minute)
	return items, nil
}

// removeOrderedCartItems deletes the line items that were just turned into
// an order. Runs inside the placement transaction so a failed placement
// leaves the cart untouched.
func removeOrderedCartItems(tx *gorm.DB, customerId string, variantKeys []string) error {
	if len(variantKeys) == 0 {
		return nil
	}
	return tx.
		Where("customer_id = ? AND variant_key IN ?", customerId, variantKeys).
		Delete(&CartItem{}).Error
}
