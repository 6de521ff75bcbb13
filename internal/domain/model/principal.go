package model

// 認証済みの呼び出し元。JWTから取り出した最小限の情報だけを持つ。
type Principal struct {
	ID          int64
	IsSuperuser bool
}
