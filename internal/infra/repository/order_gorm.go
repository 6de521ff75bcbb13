package repository

import (
	"context"
	"errors"

	"orderapp/internal/domain/model"
	repo "orderapp/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) repo.OrderRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order, products []model.Product) (model.Order, error) {
	// total はここで確定する（以後再計算しないスナップショット）
	order.TotalPrice = model.ComputeTotal(products)
	order.Products = products

	// 注文・商品・関連が全部入るか、何も入らないか
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&order).Error
	})
	if err != nil {
		return model.Order{}, err
	}

	return r.reload(ctx, order.ID)
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64, ownerID *int64) (model.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Products", productOrder).
		Where("id = ? AND is_deleted = ?", orderID, false)

	//所有者スコープ
	if ownerID != nil {
		q = q.Where("user_id = ?", *ownerID)
	}

	var o model.Order
	err := q.First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("is_deleted = ?", false)

	//status 絞り込み
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	//total_price の範囲絞り込み（両端含む）
	if f.MinPrice != nil {
		q = q.Where("total_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("total_price <= ?", *f.MaxPrice)
	}

	//user_id 絞り込み
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	var items []model.Order
	if err := q.Preload("Products", productOrder).Order("id asc").Find(&items).Error; err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

func (r *OrderGormRepository) Update(ctx context.Context, orderID int64, changes repo.OrderChanges) (model.Order, error) {
	updates := map[string]interface{}{}
	if changes.CustomerName != nil {
		updates["customer_name"] = *changes.CustomerName
	}
	if changes.Status != nil {
		updates["status"] = *changes.Status
	}
	if changes.UserID != nil {
		updates["user_id"] = *changes.UserID
	}

	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND is_deleted = ?", orderID, false).
		Updates(updates)
	if res.Error != nil {
		return model.Order{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.Order{}, repo.ErrNotFound
	}

	return r.reload(ctx, orderID)
}

func (r *OrderGormRepository) SoftDelete(ctx context.Context, orderID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Order{}).
			Where("id = ? AND is_deleted = ?", orderID, false).
			Update("is_deleted", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}

		//明細は注文専属なので一緒に不可視にする
		return tx.Exec(
			"UPDATE products SET is_deleted = TRUE WHERE id IN (SELECT product_id FROM order_products WHERE order_id = ?)",
			orderID,
		).Error
	})
}

// 商品付きで読み直す
func (r *OrderGormRepository) reload(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Products", productOrder).
		Where("id = ? AND is_deleted = ?", orderID, false).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// 明細は作成順で返す
func productOrder(db *gorm.DB) *gorm.DB {
	return db.Order("products.id asc")
}
