package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/api/web"
	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/services"
)

const (
	MsgSignedUp  = "Welcome to Wanderlust!"
	MsgLoggedIn  = "Welcome back to Wanderlust!"
	MsgLoggedOut = "You are logged out!"
	MsgBadLogin  = "Password or username is incorrect"
)

// UserHandler serves signup, login and logout.
type UserHandler struct {
	userService services.IUserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.IUserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// SignupForm handles GET /signup
func (h *UserHandler) SignupForm(c *gin.Context) {
	web.Render(c, http.StatusOK, "users/signup", nil)
}

// Signup handles POST /signup
func (h *UserHandler) Signup(c *gin.Context) {
	var input models.SignupInput
	if err := c.ShouldBind(&input); err != nil {
		web.FlashRedirect(c, models.FlashError, bindErrorMessage(err), "/signup")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), input)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.Is(err, services.ErrEmailExists),
			errors.Is(err, services.ErrUsernameExists),
			errors.Is(err, services.ErrWeakPassword),
			errors.As(err, &verr):
			web.FlashRedirect(c, models.FlashError, sentence(err.Error()), "/signup")
		default:
			_ = c.Error(err)
		}
		return
	}

	if _, err := web.LogIn(c, user); err != nil {
		_ = c.Error(err)
		return
	}
	log.Info().Str("user_id", user.ID.String()).Msg("User signed up")
	web.FlashRedirect(c, models.FlashSuccess, MsgSignedUp, "/listings")
}

// LoginForm handles GET /login
func (h *UserHandler) LoginForm(c *gin.Context) {
	web.Render(c, http.StatusOK, "users/login", nil)
}

// Login handles POST /login
func (h *UserHandler) Login(c *gin.Context) {
	var input models.LoginInput
	if err := c.ShouldBind(&input); err != nil {
		web.FlashRedirect(c, models.FlashError, MsgBadLogin, "/login")
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), input.Username, input.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		web.FlashRedirect(c, models.FlashError, MsgBadLogin, "/login")
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	returnTo, err := web.LogIn(c, user)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if returnTo == "" {
		returnTo = "/listings"
	}
	web.FlashRedirect(c, models.FlashSuccess, MsgLoggedIn, returnTo)
}

// Logout handles GET /logout
func (h *UserHandler) Logout(c *gin.Context) {
	if err := web.LogOut(c); err != nil {
		_ = c.Error(err)
		return
	}
	web.FlashRedirect(c, models.FlashSuccess, MsgLoggedOut, "/listings")
}
