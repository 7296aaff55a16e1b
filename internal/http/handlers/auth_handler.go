// Staff authentication handlers.
//
// Sessions are HS256 JWTs carried in an HttpOnly cookie. The cookie is
// SameSite=None when Secure is enabled so the storefront on another origin can
// send it; plain-HTTP development falls back to SameSite=Lax.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-excursion-backend/internal/http/middleware"
)

// CredentialsRequest is the body of sign-in and sign-up.
type CredentialsRequest struct {
	Login    string `json:"login"    example:"guide"`
	Password string `json:"password" example:"s3cret-pass"`
}

// AuthStatusResponse answers GET /check_auth.
type AuthStatusResponse struct {
	IsAuth bool   `json:"isAuth" example:"true"`
	Login  string `json:"login,omitempty" example:"guide"`
}

// SignIn godoc
// @ID          signIn
// @Summary     Sign in
// @Description Checks staff credentials and sets the session cookie.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body body     handlers.CredentialsRequest true "Credentials"
// @Success     200  {object} handlers.MessageResponse
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     401  {object} handlers.ErrorResponse "Invalid login or password"
// @Failure     429  {object} handlers.ErrorResponse
// @Router      /sign_in [post]
func (h *Handlers) SignIn(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body", "Некорректное тело запроса")
		return
	}
	token, err := h.Auth.SignIn(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	h.setSessionCookie(c, token, int(h.opt.TokenTTL.Seconds()))
	ok(c, http.StatusOK, MessageResponse{Message: "Sign in successful"})
}

// SignOut godoc
// @ID          signOut
// @Summary     Sign out
// @Description Clears the session cookie.
// @Tags        Auth
// @Produce     json
// @Success     200  {object} handlers.MessageResponse
// @Router      /sign_out [post]
func (h *Handlers) SignOut(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	ok(c, http.StatusOK, MessageResponse{Message: "Sign out successful"})
}

// CheckAuth godoc
// @ID          checkAuth
// @Summary     Check the session
// @Tags        Auth
// @Produce     json
// @Success     200  {object} handlers.AuthStatusResponse
// @Failure     401  {object} handlers.ErrorResponse
// @Router      /check_auth [get]
func (h *Handlers) CheckAuth(c *gin.Context) {
	resp := AuthStatusResponse{}
	if claims, found := middleware.StaffFrom(c); found {
		resp = AuthStatusResponse{IsAuth: true, Login: claims.Login}
	}
	c.Header("Cache-Control", "no-store")
	ok(c, http.StatusOK, resp)
}

// SignUp godoc
// @ID          signUp
// @Summary     Create a staff account
// @Description Only signed-in staff may create accounts.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body body     handlers.CredentialsRequest true "Credentials"
// @Success     201  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse "Login or password too short"
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     409  {object} handlers.ErrorResponse "Login taken"
// @Router      /sign_up [post]
func (h *Handlers) SignUp(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body", "Некорректное тело запроса")
		return
	}
	u, err := h.Auth.SignUp(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

func (h *Handlers) setSessionCookie(c *gin.Context, value string, maxAge int) {
	if h.opt.CookieSecure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(h.opt.CookieName, value, maxAge, "/", "", h.opt.CookieSecure, true)
}
