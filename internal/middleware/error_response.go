package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/courseaccess/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスのフォーマット。
type ErrorResponseBody struct {
	Error string `json:"error"`
}

// HandlerFunc はエラーを返すHTTPハンドラー。
// 返されたエラーはErrorTranslatorがレスポンスに変換する。
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ErrorTranslator は上流で発生したエラーをHTTPレスポンスに変換する終端処理。
// 既定ではエラー種別に関わらず401を返す。
// StrictStatusが有効な場合はINTERNAL_ERRORのみ500に変換する。
type ErrorTranslator struct {
	StrictStatus bool
	logger       *slog.Logger
}

// NewErrorTranslator はErrorTranslatorを生成する。loggerがnilの場合はslog.Default()を使う。
func NewErrorTranslator(strictStatus bool, logger *slog.Logger) *ErrorTranslator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorTranslator{
		StrictStatus: strictStatus,
		logger:       logger,
	}
}

// Write はエラーをログに記録し、{"error": message} 形式のレスポンスを書き込む。
// APIError以外のエラーは内部エラーとして扱い、詳細はクライアントに返さない。
func (t *ErrorTranslator) Write(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.logger.Error("unexpected error",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
			slog.String("request_id", RequestIDFromContext(r.Context())),
		)
		apiErr = model.NewInternalError()
	}

	t.logger.Warn("request failed",
		slog.String("error", apiErr.Message),
		slog.String("code", apiErr.Code),
		slog.String("path", r.URL.Path),
		slog.String("request_id", RequestIDFromContext(r.Context())),
	)

	WriteErrorResponse(w, t.statusFor(apiErr), apiErr)
}

// Handle はエラーを返すハンドラーをhttp.HandlerFuncに適合させる。
func (t *ErrorTranslator) Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			t.Write(w, r, err)
		}
	}
}

func (t *ErrorTranslator) statusFor(apiErr *model.APIError) int {
	if t.StrictStatus && apiErr.Code == model.ErrCodeInternal {
		return http.StatusInternalServerError
	}
	return http.StatusUnauthorized
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{Error: apiErr.Message})
}
