package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"redeemr/rewards-service/internal/metrics"
	"redeemr/rewards-service/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc     *service.Service
	logger  logrus.FieldLogger
	limiter *RateLimiter
	origins []string
}

type Config struct {
	RateLimit      RateLimitConfig
	AllowedOrigins []string
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	IsBusinessOwner bool   `json:"is_business_owner"`
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
	RememberMe  bool   `json:"remember_me"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type businessRequest struct {
	Name string `json:"name"`
}

type rewardRequest struct {
	Name           string `json:"name"`
	PointsRequired int    `json:"points_required"`
	BusinessID     string `json:"business_id"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func NewHandler(svc *service.Service, logger logrus.FieldLogger, cfg Config) *Handler {
	return &Handler{
		svc:     svc,
		logger:  logger,
		limiter: NewRateLimiter(cfg.RateLimit),
		origins: cfg.AllowedOrigins,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(h.origins))
	r.Use(middleware.StripSlashes)
	r.Use(h.limiter.Middleware)

	r.Get("/", h.handleHealth)
	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/password-reset", h.handlePasswordReset)
	r.Post("/auth/password-reset/confirm", h.handlePasswordResetConfirm)
	r.With(h.optionalIdentity).Get("/businesses/{businessID}/rewards", h.handleListRewards)

	r.Group(func(r chi.Router) {
		r.Use(h.requireIdentity)

		r.Get("/auth/me", h.handleMe)
		r.Post("/auth/change-password", h.handleChangePassword)

		r.Post("/businesses", h.handleRegisterBusiness)
		r.Post("/businesses/register", h.handleRegisterBusiness)
		r.Get("/businesses", h.handleListBusinesses)
		r.Get("/businesses/me", h.handleOwnBusiness)
		r.Post("/businesses/{businessID}/approve", h.handleApproveBusiness)
		r.Post("/businesses/{businessID}/reject", h.handleRejectBusiness)
		r.Delete("/businesses/{businessID}", h.handleDeleteBusiness)

		r.Post("/rewards", h.handleCreateReward)
		r.Post("/rewards/{rewardID}/redeem", h.handleRedeem)
		r.Get("/redemptions/me", h.handleMyRedemptions)

		r.Get("/users/all", h.handleListUsers)
		r.Post("/users/{userID}/toggle-superuser", h.handleToggleSuperuser)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.svc.Accounts.Register(r.Context(), service.RegisterInput{
		Email:           strings.TrimSpace(req.Email),
		Password:        req.Password,
		Name:            strings.TrimSpace(req.Name),
		IsBusinessOwner: req.IsBusinessOwner,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, err := h.svc.Accounts.Authenticate(r.Context(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token.Value,
		TokenType:   "bearer",
		ExpiresAt:   token.ExpiresAt.UTC().Format(time.RFC3339),
		RememberMe:  token.Remember,
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	user, err := h.svc.Accounts.Profile(r.Context(), identity)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Accounts.IssuePasswordReset(r.Context(), strings.TrimSpace(req.Email)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "if the account exists, a reset token has been sent"})
}

func (h *Handler) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Accounts.CompletePasswordReset(r.Context(), strings.TrimSpace(req.Token), req.NewPassword); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "password has been reset"})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	identity, _ := identityFromContext(r.Context())
	if err := h.svc.Accounts.ChangePassword(r.Context(), identity, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "password updated"})
}

func (h *Handler) handleRegisterBusiness(w http.ResponseWriter, r *http.Request) {
	var req businessRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	identity, _ := identityFromContext(r.Context())
	business, err := h.svc.Businesses.Register(r.Context(), identity, req.Name)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, business)
}

func (h *Handler) handleOwnBusiness(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	business, err := h.svc.Businesses.Own(r.Context(), identity)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, business)
}

func (h *Handler) handleListBusinesses(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	businesses, err := h.svc.Businesses.List(r.Context(), identity)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, businesses)
}

func (h *Handler) handleApproveBusiness(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	business, err := h.svc.Businesses.Approve(r.Context(), identity, chi.URLParam(r, "businessID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, business)
}

func (h *Handler) handleRejectBusiness(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	if err := h.svc.Businesses.Reject(r.Context(), identity, chi.URLParam(r, "businessID")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "business rejected"})
}

func (h *Handler) handleDeleteBusiness(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	if err := h.svc.Businesses.Delete(r.Context(), identity, chi.URLParam(r, "businessID")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "business deleted"})
}

func (h *Handler) handleCreateReward(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	identity, _ := identityFromContext(r.Context())
	reward, err := h.svc.Rewards.Create(r.Context(), identity, service.CreateRewardInput{
		BusinessID:     strings.TrimSpace(req.BusinessID),
		Name:           req.Name,
		PointsRequired: req.PointsRequired,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

// handleListRewards is reachable without a token; anonymous callers, and
// callers whose token no longer resolves, see approved businesses only.
func (h *Handler) handleListRewards(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	rewards, err := h.svc.Rewards.List(r.Context(), identity, chi.URLParam(r, "businessID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *Handler) handleRedeem(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	redemption, err := h.svc.Rewards.Redeem(r.Context(), identity, chi.URLParam(r, "rewardID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, redemption)
}

func (h *Handler) handleMyRedemptions(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	redemptions, err := h.svc.Rewards.MyRedemptions(r.Context(), identity)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, redemptions)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	users, err := h.svc.Accounts.ListUsers(r.Context(), identity)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) handleToggleSuperuser(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	user, err := h.svc.Accounts.ToggleSuperuser(r.Context(), identity, chi.URLParam(r, "userID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
