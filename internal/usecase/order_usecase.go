package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"orderapp/internal/domain/model"
	repo "orderapp/internal/repository"

	"github.com/shopspring/decimal"
)

// クライアントが文言ではなくコードで分岐できるようにする
const (
	CodeInvalidChoice  = "invalid_choice"
	CodeInvalidRange   = "invalid_range"
	CodeNegativeOrZero = "negative_or_zero"
	CodeNull           = "null"
	CodeDoesNotExist   = "does_not_exist"
	CodeForbidden      = "forbidden"
)

type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func NewHTTPErrorCode(status int, code string, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 入力DTO
type ProductSpec struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int64
}

type CreateOrderInput struct {
	CustomerName string
	Status       string
	Products     []ProductSpec
}

type ListOrdersInput struct {
	Status   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	UserID   *int64
}

type UpdateOrderInput struct {
	CustomerName *string
	Status       *string
	UserID       *int64
}

// usecaseがValidatorInterfaceに依存する約束
type OrderValidator interface {
	// superuserは全注文、一般ユーザーは自分の注文のみ。
	// 範囲外は「存在しない」と同じ404にする（他人の注文の存在を漏らさない）。
	ResolveOrder(ctx context.Context, principal model.Principal, orderID int64) (model.Order, error)
	ValidateListFilter(principal model.Principal, in ListOrdersInput) (repo.OrderListFilter, error)
	ValidateUpdate(ctx context.Context, principal model.Principal, in UpdateOrderInput) (repo.OrderChanges, error)
	ValidateProducts(specs []ProductSpec) ([]model.Product, error)
}

// 出力DTO
type ProductOutput struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
}

type OrderOutput struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	CustomerName string          `json:"customer_name"`
	Status       string          `json:"status"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Products     []ProductOutput `json:"products"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type OrderUsecase struct {
	orders    repo.OrderRepository
	validator OrderValidator
	cache     repo.OrderCache
	audit     repo.AuditLogRepository
	logger    *slog.Logger
}

// DI
func NewOrderUsecase(
	orders repo.OrderRepository,
	validator OrderValidator,
	cache repo.OrderCache,
	audit repo.AuditLogRepository,
	logger *slog.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		orders:    orders,
		validator: validator,
		cache:     cache,
		audit:     audit,
		logger:    logger,
	}
}

// 注文作成。所有者はサーバー側で確定する（クライアントは指定できない）。
func (u *OrderUsecase) CreateOrder(ctx context.Context, principal model.Principal, in CreateOrderInput) (OrderOutput, error) {
	if principal.ID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	customerName := strings.TrimSpace(in.CustomerName)
	if customerName == "" {
		return OrderOutput{}, NewHTTPErrorCode(http.StatusBadRequest, CodeNull, "customer_name must not be empty")
	}

	//status未指定はPENDING
	status := model.OrderStatusPending
	if in.Status != "" {
		parsed, ok := model.ParseOrderStatus(in.Status)
		if !ok {
			return OrderOutput{}, invalidStatusChoice(in.Status)
		}
		status = parsed
	}

	products, err := u.validator.ValidateProducts(in.Products)
	if err != nil {
		return OrderOutput{}, err
	}

	created, err := u.orders.Create(ctx, model.Order{
		UserID:       principal.ID,
		CustomerName: customerName,
		Status:       status,
	}, products)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.cacheSet(ctx, created)
	u.logger.Info("order created", "order_id", created.ID, "user_id", principal.ID)

	return toOrderOutput(created), nil
}

// 注文詳細。キャッシュ優先、ミス時はDBから引いてキャッシュに書き戻す。
func (u *OrderUsecase) GetOrder(ctx context.Context, principal model.Principal, orderID int64) (OrderOutput, error) {
	if principal.ID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if cached, ok := u.cacheGet(ctx, orderID); ok {
		//ヒットでも所有チェックは省略しない
		if principal.IsSuperuser || cached.UserID == principal.ID {
			return toOrderOutput(cached), nil
		}
		return OrderOutput{}, orderNotFound(orderID)
	}

	o, err := u.validator.ResolveOrder(ctx, principal, orderID)
	if err != nil {
		return OrderOutput{}, err
	}

	u.cacheSet(ctx, o)
	return toOrderOutput(o), nil
}

// 注文一覧。一般ユーザーは自分の注文しか見えない。
func (u *OrderUsecase) ListOrders(ctx context.Context, principal model.Principal, in ListOrdersInput) ([]OrderOutput, error) {
	if principal.ID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	f, err := u.validator.ValidateListFilter(principal, in)
	if err != nil {
		return []OrderOutput{}, err
	}

	orders, err := u.orders.List(ctx, f)
	if err != nil {
		return []OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o))
	}
	return outs, nil
}

// 注文更新。更新できるフィールドは customer_name / status / user_id のみ。
func (u *OrderUsecase) UpdateOrder(ctx context.Context, principal model.Principal, orderID int64, in UpdateOrderInput) (OrderOutput, error) {
	if principal.ID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	//先に対象を解決する（404はボディ検証より優先）
	before, err := u.validator.ResolveOrder(ctx, principal, orderID)
	if err != nil {
		return OrderOutput{}, err
	}

	changes, err := u.validator.ValidateUpdate(ctx, principal, in)
	if err != nil {
		return OrderOutput{}, err
	}

	updated, err := u.orders.Update(ctx, orderID, changes)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return OrderOutput{}, orderNotFound(orderID)
		}
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.cacheSet(ctx, updated)
	u.writeAudit(ctx, principal, model.AuditActionUpdateOrder, before, updated)
	u.logger.Info("order updated", "order_id", updated.ID, "actor_id", principal.ID)

	return toOrderOutput(updated), nil
}

// 論理削除。superuserのみ。行も明細も物理削除はしない。
func (u *OrderUsecase) SoftDeleteOrder(ctx context.Context, principal model.Principal, orderID int64) error {
	if principal.ID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !principal.IsSuperuser {
		return NewHTTPErrorCode(http.StatusForbidden, CodeForbidden, "superuser only")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	before, err := u.validator.ResolveOrder(ctx, principal, orderID)
	if err != nil {
		return err
	}

	if err := u.orders.SoftDelete(ctx, before.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return orderNotFound(orderID)
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.cacheInvalidate(ctx, before.ID)

	deleted := before
	deleted.IsDeleted = true
	u.writeAudit(ctx, principal, model.AuditActionDeleteOrder, before, deleted)
	u.logger.Info("order deleted", "order_id", before.ID, "actor_id", principal.ID)

	return nil
}

func orderNotFound(orderID int64) error {
	return NewHTTPErrorCode(http.StatusNotFound, CodeDoesNotExist, fmt.Sprintf("order not found by id: %d", orderID))
}

func invalidStatusChoice(value string) error {
	return NewHTTPErrorCode(
		http.StatusBadRequest,
		CodeInvalidChoice,
		fmt.Sprintf("%s is not a valid status. Available statuses are: %s", value, strings.Join(model.OrderStatusNames(), ", ")),
	)
}

// キャッシュはベストエフォート。失敗はログだけ残して握りつぶす。
func (u *OrderUsecase) cacheGet(ctx context.Context, orderID int64) (model.Order, bool) {
	if u.cache == nil {
		return model.Order{}, false
	}
	o, ok, err := u.cache.Get(ctx, orderID)
	if err != nil {
		u.logger.Warn("order cache get failed", "order_id", orderID, "error", err)
		return model.Order{}, false
	}
	return o, ok
}

func (u *OrderUsecase) cacheSet(ctx context.Context, order model.Order) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Set(ctx, order); err != nil {
		u.logger.Warn("order cache set failed", "order_id", order.ID, "error", err)
	}
}

func (u *OrderUsecase) cacheInvalidate(ctx context.Context, orderID int64) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Invalidate(ctx, orderID); err != nil {
		u.logger.Warn("order cache invalidate failed", "order_id", orderID, "error", err)
	}
}

type orderAuditSnapshot struct {
	CustomerName string `json:"customer_name"`
	Status       string `json:"status"`
	UserID       int64  `json:"user_id"`
	IsDeleted    bool   `json:"is_deleted"`
}

// 監査ログは本処理のコミット後に書く。失敗しても本処理は取り消さない。
func (u *OrderUsecase) writeAudit(ctx context.Context, principal model.Principal, action model.AuditAction, before model.Order, after model.Order) {
	if u.audit == nil {
		return
	}

	err := u.audit.Create(ctx, model.AuditLog{
		ActorUserID:  principal.ID,
		Action:       action,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   after.ID,
		BeforeJSON:   auditJSON(before),
		AfterJSON:    auditJSON(after),
		CreatedAt:    time.Now(),
	})
	if err != nil {
		u.logger.Warn("audit log write failed", "order_id", after.ID, "action", string(action), "error", err)
	}
}

func auditJSON(o model.Order) string {
	b, err := json.Marshal(orderAuditSnapshot{
		CustomerName: o.CustomerName,
		Status:       string(o.Status),
		UserID:       o.UserID,
		IsDeleted:    o.IsDeleted,
	})
	if err != nil {
		return "{}"
	}
	return string(b)
}

func toOrderOutput(o model.Order) OrderOutput {
	outProducts := make([]ProductOutput, 0, len(o.Products))
	for _, p := range o.Products {
		outProducts = append(outProducts, ProductOutput{
			ID:        p.ID,
			Name:      p.Name,
			UnitPrice: p.UnitPrice,
			Quantity:  p.Quantity,
		})
	}

	return OrderOutput{
		ID:           o.ID,
		UserID:       o.UserID,
		CustomerName: o.CustomerName,
		Status:       string(o.Status),
		TotalPrice:   o.TotalPrice,
		Products:     outProducts,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}
