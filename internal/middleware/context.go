// Package middleware はHTTPミドルウェアを提供する。
package middleware

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// identityContextKey は検証済みIdentityを格納するためのキー。
	identityContextKey = contextKey("identity")
	// requestIDContextKey はリクエストIDを格納するためのキー。
	requestIDContextKey = contextKey("request_id")
	// requestLogContextKey はアクセスログ用の付帯情報を格納するためのキー。
	requestLogContextKey = contextKey("request_log")
)
