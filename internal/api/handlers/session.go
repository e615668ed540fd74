package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/session"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

const (
	defaultPollTimeout = 25 * time.Second

	// EventSeqHeader carries the sequence number of the scope's latest
	// event. Clients pass it back as ?after= on the next poll.
	EventSeqHeader = "X-Session-Event-Seq"
)

// SessionSource is what the handler reads from a session coordinator.
type SessionSource interface {
	Status() session.Status
	Subscribe() (<-chan session.Event, func())
	LastEvent() (session.Event, bool)
}

type SessionHandler struct {
	authService service.AuthService
	customer    SessionSource
	admin       SessionSource
	pollTimeout time.Duration
	validator   *validator.Validate
}

func NewSessionHandler(authService service.AuthService, customer, admin SessionSource, pollTimeout time.Duration) *SessionHandler {

	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}

	return &SessionHandler{
		authService: authService,
		customer:    customer,
		admin:       admin,
		pollTimeout: pollTimeout,
		validator:   validator.New(),
	}
}

// Login godoc
//	@Summary		Sign in a customer
//	@Description	Exchanges credentials for a token pair with the store API and keeps the session server-side.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		models.LoginRequest		true	"Customer credentials"
//	@Success		200			{object}	session.Status			"Signed in"
//	@Failure		400			{object}	response.ErrorResponse	"Invalid input"
//	@Failure		401			{object}	response.ErrorResponse	"Invalid credentials"
//	@Failure		502			{object}	response.ErrorResponse	"Store API unavailable"
//	@Router			/session/login [post]
func (h *SessionHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.LoginRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid login input")
			return
		}

		logger = logger.With(slog.String("email", req.Email))

		if _, err := h.authService.Login(r.Context(), &req); err != nil {
			logger.Warn("Login failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Customer signed in")
		response.Success(w, http.StatusOK, h.customer.Status())
	}
}

// Register godoc
//	@Summary		Register a customer
//	@Description	Creates an account with the store API and signs it in.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			account	body		models.RegisterRequest	true	"Account details"
//	@Success		201		{object}	session.Status			"Registered and signed in"
//	@Failure		400		{object}	response.ErrorResponse	"Invalid input or email already registered"
//	@Failure		502		{object}	response.ErrorResponse	"Store API unavailable"
//	@Router			/session/register [post]
func (h *SessionHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.RegisterRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid registration input")
			return
		}

		if _, err := h.authService.Register(r.Context(), &req); err != nil {
			logger.Warn("Registration failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Customer registered")
		response.Success(w, http.StatusCreated, h.customer.Status())
	}
}

// Logout godoc
//	@Summary		Sign out
//	@Description	Ends the customer session and empties the cart and applied coupon.
//	@Tags			Session
//	@Success		204
//	@Failure		500	{object}	response.ErrorResponse	"Storage failure"
//	@Router			/session/logout [post]
func (h *SessionHandler) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		if err := h.authService.Logout(r.Context()); err != nil {
			logger.Error("Logout failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Customer signed out")
		response.NoContent(w)
	}
}

// Status godoc
//	@Summary		Current customer session
//	@Description	Reports whether a customer is signed in, with the access token's subject and expiry.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	session.Status
//	@Router			/session [get]
func (h *SessionHandler) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.customer.Status())
	}
}

// Events godoc
//	@Summary		Wait for the next session event
//	@Description	Long-polls until the customer session ends (expired or logged out). With after set, an event newer than that sequence number is answered at once, so nothing is missed between polls. Answers 204 when nothing happened before the poll timeout.
//	@Tags			Session
//	@Produce		json
//	@Param			after	query		int	false	"Sequence number of the last event seen"
//	@Success		200		{object}	session.Event
//	@Success		204
//	@Failure		400		{object}	response.ErrorResponse	"Invalid after"
//	@Router			/session/events [get]
func (h *SessionHandler) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var (
			after    uint64
			hasAfter bool
		)
		if raw := r.URL.Query().Get("after"); raw != "" {
			parsed, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				response.Error(w, errors.BadRequestError("Invalid after").WithDetail(err.Error()))
				return
			}
			after, hasAfter = parsed, true
		}

		// subscribe before reading the latest event so none falls in between
		events, cancel := h.customer.Subscribe()
		defer cancel()

		last, seen := h.customer.LastEvent()
		w.Header().Set(EventSeqHeader, strconv.FormatUint(last.Seq, 10))

		if hasAfter && seen && last.Seq > after {
			logger.Info("Missed session event delivered", slog.String("type", string(last.Type)), slog.Uint64("seq", last.Seq))
			response.Success(w, http.StatusOK, last)
			return
		}

		timer := time.NewTimer(h.pollTimeout)
		defer timer.Stop()

		select {
		case evt, ok := <-events:
			if !ok {
				response.NoContent(w)
				return
			}
			w.Header().Set(EventSeqHeader, strconv.FormatUint(evt.Seq, 10))
			logger.Info("Session event delivered", slog.String("type", string(evt.Type)))
			response.Success(w, http.StatusOK, evt)
		case <-timer.C:
			response.NoContent(w)
		case <-r.Context().Done():
		}
	}
}

// AdminLogin godoc
//	@Summary		Sign in a staff member
//	@Description	Signs in on the admin session. Accounts without staff rights are rejected and every session is ended.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		models.LoginRequest		true	"Staff credentials"
//	@Success		200			{object}	session.Status			"Signed in"
//	@Failure		400			{object}	response.ErrorResponse	"Invalid input"
//	@Failure		401			{object}	response.ErrorResponse	"Invalid credentials"
//	@Failure		403			{object}	response.ErrorResponse	"Not a staff account"
//	@Router			/admin/session/login [post]
func (h *SessionHandler) AdminLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.LoginRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid admin login input")
			return
		}

		logger = logger.With(slog.String("email", req.Email))

		if _, err := h.authService.AdminLogin(r.Context(), &req); err != nil {
			logger.Warn("Admin login failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Staff member signed in")
		response.Success(w, http.StatusOK, h.admin.Status())
	}
}

// AdminStatus godoc
//	@Summary		Current admin session
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	session.Status
//	@Router			/admin/session [get]
func (h *SessionHandler) AdminStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.admin.Status())
	}
}

// Profile godoc
//	@Summary		Signed-in customer's profile
//	@Description	Fetches the profile from the store API and refreshes the stored snapshot.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	models.User
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Router			/session/profile [get]
func (h *SessionHandler) Profile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		user, err := h.authService.Profile(r.Context())
		if err != nil {
			logger.Warn("Failed to get profile", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, user)
	}
}
