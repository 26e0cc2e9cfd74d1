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

// Product is the catalog entry plus its inventory record. TotalStock is
// derived: it must always equal the sum of the per-size stock buckets.
type Product struct {
	ID             int             `gorm:"primary_key" json:"id"`
	Name           string          `gorm:"size:255;not null;uniqueIndex" json:"name" binding:"required"`
	Sku            string          `gorm:"size:100" json:"sku"`
	Description    string          `gorm:"type:text" json:"description"`
	ImageUrl       string          `gorm:"size:512" json:"image_url"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price" binding:"required"`
	TotalStock     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_stock"`
	PurchasedCount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchased_count"`
	AverageRating  decimal.Decimal `gorm:"type:decimal(4,2);default:0" json:"average_rating"`
	ReviewCount    int             `gorm:"default:0" json:"review_count"`
	Sizes          []ProductSize   `gorm:"foreignKey:ProductId" json:"sizes"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type ProductSize struct {
	ID        int             `gorm:"primary_key" json:"id"`
	ProductId int             `gorm:"index;not null;uniqueIndex:idx_product_size" json:"product_id"`
	Size      string          `gorm:"size:20;not null;uniqueIndex:idx_product_size" json:"size"`
	Stock     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"stock"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name        string           `json:"name" binding:"required"`
	Sku         string           `json:"sku"`
	Description string           `json:"description"`
	ImageUrl    string           `json:"image_url"`
	UnitPrice   decimal.Decimal  `json:"unit_price" binding:"required"`
	Sizes       []NewProductSize `json:"sizes"`
}

type NewProductSize struct {
	Size  string          `json:"size" binding:"required"`
	Stock decimal.Decimal `json:"stock"`
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	db := config.GetDB()

	if err := utils.ValidateUnique[Product](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}

	var sizes []ProductSize
	totalStock := decimal.Zero
	for _, s := range input.Sizes {
		if s.Stock.IsNegative() {
			return nil, errors.New("opening stock cannot be negative")
		}
		sizes = append(sizes, ProductSize{
			Size:  s.Size,
			Stock: s.Stock,
		})
		totalStock = totalStock.Add(s.Stock)
	}

	product := Product{
		Name:        input.Name,
		Sku:         input.Sku,
		Description: input.Description,
		ImageUrl:    input.ImageUrl,
		UnitPrice:   input.UnitPrice,
		TotalStock:  totalStock,
		Sizes:       sizes,
	}

	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}

	return &product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return utils.FetchSingleModel[Product](ctx, id, "Sizes")
}

func GetProducts(ctx context.Context) ([]*Product, error) {
	db := config.GetDB()
	var results []*Product
	err := db.WithContext(ctx).Preload("Sizes").Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// lockProductsForUpdate reads the affected product rows FOR UPDATE, in id
// order so concurrent placements acquire locks in the same sequence.
func lockProductsForUpdate(tx *gorm.DB, productIds []int) (map[int]*Product, error) {
	var products []*Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Sizes").
		Where("id IN ?", productIds).
		Order("id").
		Find(&products).Error; err != nil {
		return nil, err
	}
	byId := make(map[int]*Product, len(products))
	for _, p := range products {
		byId[p.ID] = p
	}
	return byId, nil
}

// decrementSizeStock subtracts qty from one size bucket with a stock guard,
// then recomputes the product's total stock from the buckets. Must run
// inside the placement transaction, with the product row already locked.
func decrementSizeStock(tx *gorm.DB, product *Product, size string, qty decimal.Decimal) error {
	if size == "" {
		// items without a size carry no bucket to decrement
		return nil
	}

	result := tx.Model(&ProductSize{}).
		Where("product_id = ? AND size = ? AND stock >= ?", product.ID, size, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: product %q size %q", utils.ErrorStockExceeded, product.Name, size)
	}

	return recomputeTotalStock(tx, product.ID)
}

// restoreSizeStock returns quantity to a size bucket (order cancelled while
// still pending).
func restoreSizeStock(tx *gorm.DB, productId int, size string, qty decimal.Decimal) error {
	if size == "" {
		return nil
	}
	if err := tx.Model(&ProductSize{}).
		Where("product_id = ? AND size = ?", productId, size).
		Update("stock", gorm.Expr("stock + ?", qty)).Error; err != nil {
		return err
	}
	return recomputeTotalStock(tx, productId)
}

func recomputeTotalStock(tx *gorm.DB, productId int) error {
	return tx.Exec(
		"UPDATE products SET total_stock = (SELECT COALESCE(SUM(stock), 0) FROM product_sizes WHERE product_id = ?) WHERE id = ?",
		productId, productId,
	).Error
}

// IncrementPurchasedCount folds purchased quantity into the product's
// counter with an atomic increment (no read-modify-write window).
func IncrementPurchasedCount(tx *gorm.DB, productId int, qty decimal.Decimal) error {
	return tx.Model(&Product{}).
		Where("id = ?", productId).
		Update("purchased_count", gorm.Expr("purchased_count + ?", qty)).Error
}
