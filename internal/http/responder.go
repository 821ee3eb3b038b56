package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/meetsched/internal/application"
)

var (
	errBadRequestBody      = errors.New("無効なリクエスト形式です。")
	errInvalidEventTypeID  = errors.New("無効なイベントタイプ ID です。")
	errInvalidBookingUID   = errors.New("無効な予約 UID です。")
	errInvalidAccountID    = errors.New("無効な連携アカウント ID です。")
	errInvalidCalendarID   = errors.New("無効なカレンダー ID です。")
	errMissingSessionToken = errors.New("認証トークンを指定してください")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// writeRateLimited writes a 429 carrying a resetAt header set to the window's
// reset time in RFC3339, so a well-behaved client knows when to retry.
func (r responder) writeRateLimited(ctx context.Context, w http.ResponseWriter, resetAt time.Time) {
	if w != nil && !resetAt.IsZero() {
		w.Header().Set("resetAt", resetAt.UTC().Format(time.RFC3339))
	}
	r.handleServiceError(ctx, w, application.ErrRateLimited)
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "この操作を実行する権限がありません。",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "指定されたリソースが見つかりません。"})
	case errors.Is(err, application.ErrSlotTaken):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SLOT_TAKEN",
			Message:   "指定された時間帯はすでに予約されています。",
		})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "リソースはすでに存在します。"})
	case errors.Is(err, application.ErrRateLimited):
		r.writeJSON(ctx, w, http.StatusTooManyRequests, errorResponse{
			ErrorCode: "RATE_LIMITED",
			Message:   "リクエストが多すぎます。しばらくしてから再試行してください。",
		})
	case errors.Is(err, application.ErrUpstreamUnavailable):
		r.writeJSON(ctx, w, http.StatusBadGateway, errorResponse{
			ErrorCode: "UPSTREAM_UNAVAILABLE",
			Message:   "外部カレンダーサービスと通信できませんでした。",
		})
	case errors.Is(err, application.ErrTokenInvalid):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "TOKEN_INVALID",
			Message:   "連携アカウントの認証情報が無効です。再度連携してください。",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			details := localizeValidationErrors(vErr)
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "入力内容に誤りがあります。",
				Errors:  details,
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "サーバー内部でエラーが発生しました。"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "リクエスト内容が正しくありません。"
	case http.StatusUnauthorized:
		return "認証が必要です。"
	case http.StatusForbidden:
		return "この操作を実行する権限がありません。"
	case http.StatusNotFound:
		return "指定されたリソースが見つかりません。"
	case http.StatusConflict:
		return "要求はリソースの現在の状態と競合しています。"
	case http.StatusUnprocessableEntity:
		return "入力内容に誤りがあります。"
	default:
		return "サーバー内部でエラーが発生しました。"
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "is required":
		return "この項目は必須です。"
	case "must be a valid IANA timezone":
		return "有効なタイムゾーン (IANA 名) を指定してください。"
	case "must be positive":
		return "正の整数で指定してください。"
	case "must not be negative":
		return "0 以上の値を指定してください。"
	case "startLocal must be HH:MM":
		return "開始時刻は HH:MM 形式で指定してください。"
	case "endLocal must be HH:MM":
		return "終了時刻は HH:MM 形式で指定してください。"
	case "unrecognized value":
		return "値が認識できません。"
	case "rangeStart must be before rangeEnd":
		return "終了日時は開始日時より後である必要があります。"
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
