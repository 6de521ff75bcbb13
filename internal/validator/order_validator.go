package validator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"orderapp/internal/domain/model"
	"orderapp/internal/repository"
	"orderapp/internal/usecase"
)

type orderValidator struct {
	orders repository.OrderRepository
	users  repository.UserRepository
}

// Usecaseは interface を依存注入
func NewOrderValidator(orders repository.OrderRepository, users repository.UserRepository) usecase.OrderValidator {
	return &orderValidator{orders: orders, users: users}
}

// 注文を呼び出し元のスコープで解決する。
// superuserは全注文、一般ユーザーは自分の注文のみ。
// 他人の注文は「存在しない扱い」にする（404で統一、存在を漏らさない）。
func (v *orderValidator) ResolveOrder(ctx context.Context, principal model.Principal, orderID int64) (model.Order, error) {
	var ownerID *int64
	if !principal.IsSuperuser {
		ownerID = &principal.ID
	}

	o, err := v.orders.FindByID(ctx, orderID, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Order{}, usecase.NewHTTPErrorCode(
			http.StatusNotFound,
			usecase.CodeDoesNotExist,
			fmt.Sprintf("order not found by id: %d", orderID),
		)
	}
	if err != nil {
		return model.Order{}, usecase.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return o, nil
}

// 一覧の絞り込み条件を検証する。
// 一般ユーザーには user_id を強制注入し、呼び出し元の指定は無視する。
func (v *orderValidator) ValidateListFilter(principal model.Principal, in usecase.ListOrdersInput) (repository.OrderListFilter, error) {
	f := repository.OrderListFilter{
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		UserID:   in.UserID,
	}

	//status（指定があれば閉じた選択肢のどれか）
	if in.Status != "" {
		status, ok := model.ParseOrderStatus(in.Status)
		if !ok {
			return repository.OrderListFilter{}, invalidChoice(in.Status)
		}
		f.Status = status
	}

	//価格範囲は min <= max
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return repository.OrderListFilter{}, usecase.NewHTTPErrorCode(
			http.StatusBadRequest,
			usecase.CodeInvalidRange,
			"min_price must be less than or equal to max_price",
		)
	}

	//一般ユーザーは常に自分の注文だけ
	if !principal.IsSuperuser {
		ownerID := principal.ID
		f.UserID = &ownerID
	}

	return f, nil
}

// 更新ボディを検証する。
func (v *orderValidator) ValidateUpdate(ctx context.Context, principal model.Principal, in usecase.UpdateOrderInput) (repository.OrderChanges, error) {
	changes := repository.OrderChanges{}

	if in.CustomerName == nil && in.Status == nil && in.UserID == nil {
		return repository.OrderChanges{}, usecase.NewHTTPErrorCode(
			http.StatusBadRequest,
			usecase.CodeNull,
			"update body must not be empty",
		)
	}

	if in.CustomerName != nil {
		name := strings.TrimSpace(*in.CustomerName)
		if name == "" {
			return repository.OrderChanges{}, usecase.NewHTTPErrorCode(
				http.StatusBadRequest,
				usecase.CodeNull,
				"customer_name must not be empty",
			)
		}
		changes.CustomerName = &name
	}

	if in.Status != nil {
		status, ok := model.ParseOrderStatus(*in.Status)
		if !ok {
			return repository.OrderChanges{}, invalidChoice(*in.Status)
		}
		changes.Status = &status
	}

	if in.UserID != nil {
		//所有者の付け替えはsuperuserだけ
		if !principal.IsSuperuser {
			return repository.OrderChanges{}, usecase.NewHTTPErrorCode(
				http.StatusForbidden,
				usecase.CodeForbidden,
				"only superusers may reassign orders",
			)
		}

		//付け替え先が実在すること（404ではなく400にする：入力不正の扱い）
		_, err := v.users.FindByID(ctx, *in.UserID)
		if errors.Is(err, repository.ErrUserNotFound) {
			return repository.OrderChanges{}, usecase.NewHTTPErrorCode(
				http.StatusBadRequest,
				usecase.CodeDoesNotExist,
				fmt.Sprintf("user not found by id: %d", *in.UserID),
			)
		}
		if err != nil {
			return repository.OrderChanges{}, usecase.NewHTTPError(http.StatusInternalServerError, "db error")
		}
		changes.UserID = in.UserID
	}

	return changes, nil
}

// 商品明細を検証する。
func (v *orderValidator) ValidateProducts(specs []usecase.ProductSpec) ([]model.Product, error) {
	if len(specs) == 0 {
		return nil, usecase.NewHTTPErrorCode(
			http.StatusBadRequest,
			usecase.CodeNull,
			"products must not be empty",
		)
	}

	products := make([]model.Product, 0, len(specs))
	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, usecase.NewHTTPErrorCode(
				http.StatusBadRequest,
				usecase.CodeNull,
				"product name must not be empty",
			)
		}
		if !spec.UnitPrice.IsPositive() {
			return nil, usecase.NewHTTPErrorCode(
				http.StatusBadRequest,
				usecase.CodeNegativeOrZero,
				"unit_price must be greater than zero",
			)
		}
		if spec.Quantity <= 0 {
			return nil, usecase.NewHTTPErrorCode(
				http.StatusBadRequest,
				usecase.CodeNegativeOrZero,
				"quantity must be greater than zero",
			)
		}

		products = append(products, model.Product{
			Name:      name,
			UnitPrice: spec.UnitPrice,
			Quantity:  spec.Quantity,
		})
	}

	return products, nil
}

func invalidChoice(value string) error {
	return usecase.NewHTTPErrorCode(
		http.StatusBadRequest,
		usecase.CodeInvalidChoice,
		fmt.Sprintf("%s is not a valid status. Available statuses are: %s", value, strings.Join(model.OrderStatusNames(), ", ")),
	)
}
