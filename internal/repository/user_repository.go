package repository

import (
	"context"
	"errors"

	"orderapp/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// ユーザーの取得だけを約束。
// 認証・登録は外部の認証基盤の仕事で、ここでは所有者変更時の存在確認にだけ使う。
type UserRepository interface {
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
}
