package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/meetsched/internal/application"
)

type accountService interface {
	Connect(ctx context.Context, principal application.Principal, params application.ConnectAccountParams) (application.ConnectedAccount, error)
	SetCalendarSelection(ctx context.Context, principal application.Principal, calendarID string, selected bool) (application.Calendar, error)
	ListAccounts(ctx context.Context, principal application.Principal) ([]application.ConnectedAccount, error)
	ListCalendars(ctx context.Context, principal application.Principal, accountID string) ([]application.Calendar, error)
	Disconnect(ctx context.Context, principal application.Principal, accountID string) error
}

// AccountHandler exposes the host-owned connected-account and calendar
// selection surface. Every operation requires a host session.
type AccountHandler struct {
	service   accountService
	responder responder
	logger    *slog.Logger
}

func NewAccountHandler(service accountService, logger *slog.Logger) *AccountHandler {
	base := defaultLogger(logger)
	return &AccountHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AccountHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AccountHandler", operation, attrs...)
}

type connectAccountRequest struct {
	Provider         string   `json:"provider"`
	ExternalIdentity string   `json:"externalIdentity"`
	EncryptedTokens  []byte   `json:"encryptedTokens"`
	Scopes           []string `json:"scopes"`
}

type accountDTO struct {
	ID               string   `json:"id"`
	HostID           string   `json:"hostId"`
	Provider         string   `json:"provider"`
	ExternalIdentity string   `json:"externalIdentity"`
	Scopes           []string `json:"scopes"`
	Valid            bool     `json:"valid"`
}

func toAccountDTO(a application.ConnectedAccount) accountDTO {
	return accountDTO{
		ID:               a.ID,
		HostID:           a.HostID,
		Provider:         string(a.Provider),
		ExternalIdentity: a.ExternalIdentity,
		Scopes:           a.Scopes,
		Valid:            a.Valid,
	}
}

func toAccountDTOs(accounts []application.ConnectedAccount) []accountDTO {
	dtos := make([]accountDTO, 0, len(accounts))
	for _, a := range accounts {
		dtos = append(dtos, toAccountDTO(a))
	}
	return dtos
}

type calendarDTO struct {
	ID                    string `json:"id"`
	AccountID             string `json:"accountId"`
	ExternalCalendarID    string `json:"externalCalendarId"`
	Writable              bool   `json:"writable"`
	SelectedForBusy       bool   `json:"selectedForBusy"`
	IsDestinationEligible bool   `json:"isDestinationEligible"`
}

func toCalendarDTO(c application.Calendar) calendarDTO {
	return calendarDTO{
		ID:                    c.ID,
		AccountID:             c.AccountID,
		ExternalCalendarID:    c.ExternalCalendarID,
		Writable:              c.Writable,
		SelectedForBusy:       c.SelectedForBusy,
		IsDestinationEligible: c.IsDestinationEligible,
	}
}

func toCalendarDTOs(calendars []application.Calendar) []calendarDTO {
	dtos := make([]calendarDTO, 0, len(calendars))
	for _, c := range calendars {
		dtos = append(dtos, toCalendarDTO(c))
	}
	return dtos
}

// Connect handles POST /accounts.
func (h *AccountHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req connectAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Connect", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode account request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Connect", "host_id", principal.HostID, "provider", req.Provider)

	account, err := h.service.Connect(r.Context(), principal, application.ConnectAccountParams{
		Provider:         application.AccountProvider(req.Provider),
		ExternalIdentity: req.ExternalIdentity,
		EncryptedTokens:  req.EncryptedTokens,
		Scopes:           req.Scopes,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to connect account", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("account_id", account.ID).InfoContext(r.Context(), "account connected")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toAccountDTO(account))
}

// List handles GET /accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "host_id", principal.HostID)

	accounts, err := h.service.ListAccounts(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list accounts", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAccountDTOs(accounts))
}

// Disconnect handles DELETE /accounts/{id}.
func (h *AccountHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := AccountIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAccountID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Disconnect", "host_id", principal.HostID, "account_id", id)

	if err := h.service.Disconnect(r.Context(), principal, id); err != nil {
		logger.ErrorContext(r.Context(), "failed to disconnect account", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "account disconnected")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ListCalendars handles GET /accounts/{id}/calendars.
func (h *AccountHandler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	accountID, ok := AccountIDFromContext(r.Context())
	if !ok || strings.TrimSpace(accountID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAccountID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListCalendars", "host_id", principal.HostID, "account_id", accountID)

	calendars, err := h.service.ListCalendars(r.Context(), principal, accountID)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list calendars", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toCalendarDTOs(calendars))
}

type setCalendarSelectionRequest struct {
	Selected bool `json:"selected"`
}

// SetCalendarSelection handles PUT /calendars/{id}/selection.
func (h *AccountHandler) SetCalendarSelection(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	calendarID, ok := CalendarIDFromContext(r.Context())
	if !ok || strings.TrimSpace(calendarID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCalendarID)
		return
	}

	var req setCalendarSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SetCalendarSelection", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode selection request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "SetCalendarSelection", "host_id", principal.HostID, "calendar_id", calendarID)

	calendar, err := h.service.SetCalendarSelection(r.Context(), principal, calendarID, req.Selected)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to set calendar selection", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "calendar selection updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toCalendarDTO(calendar))
}
