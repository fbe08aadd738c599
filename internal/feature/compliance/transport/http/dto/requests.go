// Package dto はcomplianceフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

// SetupIngestionReq は/setup_ingestionエンドポイントのリクエストボディを表します。
type SetupIngestionReq struct {
	CompanyDescription string `json:"company_description" binding:"required"`
}
