// Authentication HTTP handlers.
//
// This file exposes the OTP login broker and staff sign-in:
//   - POST /auth/otp/request    (send a one-time code)
//   - POST /auth/otp/verify     (redeem a code for a credential pair)
//   - POST /auth/token/refresh  (rotate a credential pair)
//   - POST /auth/staff/login    (staff password login)
//   - GET  /auth/me             (profile of the caller)
//   - POST /staff               (create a staff user)
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/services"
)

//
// DTOs
//

// OTPRequest is the JSON payload for requesting a one-time code.
type OTPRequest struct {
	Phone     string           `json:"phone"      binding:"required,phone" example:"+998901234567"`
	Action    domain.OTPAction `json:"action"     binding:"required,oneof=register login" example:"register"`
	FirstName string           `json:"first_name" binding:"max=64" example:"Aziz"`
	LastName  string           `json:"last_name"  binding:"max=64" example:"Aliyev"`
}

// OTPRequestResponse acknowledges a dispatched code. The code itself is never
// returned.
type OTPRequestResponse struct {
	Status    string `json:"status"     example:"sent"`
	ExpiresIn int    `json:"expires_in" example:"300"`
}

// OTPVerifyRequest is the JSON payload for redeeming a code.
type OTPVerifyRequest struct {
	Code string `json:"code" binding:"required,len=6,numeric" example:"042917"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// StaffLoginRequest is the staff password login payload.
type StaffLoginRequest struct {
	Username string `json:"username" binding:"required,max=64" example:"editor"`
	Password string `json:"password" binding:"required" example:"s3cret-pass"`
}

// CreateStaffRequest is the payload for creating a staff user.
type CreateStaffRequest struct {
	Username string `json:"username" binding:"required,max=64" example:"hr.lead"`
	Password string `json:"password" binding:"required" example:"long-enough-password"`
	Role     string `json:"role"     binding:"required" example:"hr"`
}

// UserView describes the signed-in principal.
type UserView struct {
	ID        string      `json:"id"`
	Kind      string      `json:"kind"                 example:"account"`
	Role      domain.Role `json:"role"                 example:"visitor"`
	Phone     string      `json:"phone,omitempty"      example:"+998901234567"`
	FirstName string      `json:"first_name,omitempty" example:"Aziz"`
	LastName  string      `json:"last_name,omitempty"  example:"Aliyev"`
	Verified  bool        `json:"is_verified"`
	Username  string      `json:"username,omitempty"   example:"editor"`
}

// SessionResponse is a freshly issued credential pair.
type SessionResponse struct {
	Access          string    `json:"access"`
	Refresh         string    `json:"refresh"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
	User            UserView  `json:"user"`
}

func userView(acc *domain.Account, st *domain.StaffUser) UserView {
	switch {
	case acc != nil:
		return UserView{
			ID:        acc.ID,
			Kind:      "account",
			Role:      domain.RoleVisitor,
			Phone:     acc.Phone,
			FirstName: acc.FirstName,
			LastName:  acc.LastName,
			Verified:  acc.Verified,
		}
	case st != nil:
		return UserView{ID: st.ID, Kind: "staff", Role: st.Role, Username: st.Username}
	}
	return UserView{}
}

func sessionResponse(s *services.Session) SessionResponse {
	return SessionResponse{
		Access:          s.Access,
		Refresh:         s.Refresh,
		AccessExpiresAt: s.AccessExpiresAt,
		User:            userView(s.Account, s.Staff),
	}
}

//
// Handlers
//

// RequestOTP godoc
// @ID          requestOTP
// @Summary     Request a one-time code
// @Description Sends a six digit code by SMS. register needs an unknown phone and a first name; login needs a verified account.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.OTPRequest  true  "Phone and action"
// @Success     202   {object}  handlers.OTPRequestResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid phone, action or name"
// @Failure     404   {object}  handlers.ErrorResponse  "Unknown phone on login"
// @Failure     409   {object}  handlers.ErrorResponse  "Phone already registered"
// @Failure     429   {object}  handlers.ErrorResponse  "Too many requests"
// @Failure     502   {object}  handlers.ErrorResponse  "SMS delivery failed"
// @Router      /auth/otp/request [post]
func (h *Handlers) RequestOTP(c *gin.Context) {
	var req OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "phone and action (register|login) are required")
		return
	}
	if _, err := h.authSvc.Request(c.Request.Context(), req.Phone, req.Action, req.FirstName, req.LastName); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusAccepted, OTPRequestResponse{Status: "sent", ExpiresIn: int(h.otpTTL / time.Second)})
}

// VerifyOTP godoc
// @ID          verifyOTP
// @Summary     Redeem a one-time code
// @Description Consumes the code exactly once and returns access and refresh tokens.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.OTPVerifyRequest  true  "Code"
// @Success     200   {object}  handlers.SessionResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid or expired code"
// @Router      /auth/otp/verify [post]
func (h *Handlers) VerifyOTP(c *gin.Context) {
	var req OTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidCode, services.ErrInvalidOrExpiredCode.Error())
		return
	}
	s, err := h.authSvc.Verify(c.Request.Context(), req.Code)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sessionResponse(s))
}

// RefreshToken godoc
// @ID          refreshToken
// @Summary     Refresh credentials
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.RefreshRequest  true  "Refresh token"
// @Success     200   {object}  handlers.SessionResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     401   {object}  handlers.ErrorResponse
// @Router      /auth/token/refresh [post]
func (h *Handlers) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "refresh is required")
		return
	}
	s, err := h.authSvc.Refresh(c.Request.Context(), strings.TrimSpace(req.Refresh))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sessionResponse(s))
}

// StaffLogin godoc
// @ID          staffLogin
// @Summary     Staff password login
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.StaffLoginRequest  true  "Credentials"
// @Success     200   {object}  handlers.SessionResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     401   {object}  handlers.ErrorResponse
// @Router      /auth/staff/login [post]
func (h *Handlers) StaffLogin(c *gin.Context) {
	var req StaffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password are required")
		return
	}
	s, err := h.staffSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sessionResponse(s))
}

// Me godoc
// @ID          me
// @Summary     Current principal
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.UserView
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	p, found := principal(c)
	if !found {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	acc, st, err := h.authSvc.Profile(c.Request.Context(), p)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, userView(acc, st))
}

// CreateStaff godoc
// @ID          createStaff
// @Summary     Create a staff user
// @Tags        Staff
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.CreateStaffRequest  true  "Staff user"
// @Success     201   {object}  handlers.UserView
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     403   {object}  handlers.ErrorResponse
// @Failure     409   {object}  handlers.ErrorResponse
// @Router      /staff [post]
func (h *Handlers) CreateStaff(c *gin.Context) {
	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username, password and role are required")
		return
	}
	st, err := h.staffSvc.Create(c.Request.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, userView(nil, st))
}
