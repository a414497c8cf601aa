package scheduler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pquerna/otp/totp"
	gateway "github.com/timerd/timerd/apigateway"
	"github.com/timerd/timerd/apperr"
	"github.com/timerd/timerd/fields"
)

// CreateUser registers a new timerd user. A totp secret is minted for the
// account so one-time sign-in codes work from day one.
func (s *Service) CreateUser(c *gin.Context) {
	var u fields.User
	bindingErr := c.ShouldBindWith(&u, binding.JSON)
	switch bindingErr := bindingErr.(type) {
	case validator.ValidationErrors:
		c.JSON(http.StatusBadRequest, fields.ValidationResponse(bindingErr))
		return
	case nil:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": bindingErr.Error(), "code": "bad_request"})
		return
	}

	u.SanitizeName()
	if err := u.HashPassword(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "internal_error"})
		return
	}
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "timerd", AccountName: u.Username})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "internal_error"})
		return
	}
	u.OTPSecret = key.Secret()

	if err := s.Db.Create(&u).Error; err != nil {
		// the username carries a unique index
		err := apperr.Wrap(err, apperr.ErrConflict, "username already taken")
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	u.Password = ""
	c.JSON(http.StatusCreated, gin.H{"result": u})
}

// LoginHandler signs a user in with their password and hands back a jwt.
func (s *Service) LoginHandler(c *gin.Context) {
	var req fields.User
	if err := c.ShouldBindWith(&req, binding.JSON); err != nil {
		s.logger().Printf("The request is wrong. %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "code": "bad_request"})
		return
	}

	u, err := fields.GetUserByUsername(req.Username, s.Db)
	if err != nil {
		s.logger().Printf("User %s is not found.", req.Username)
		authErr := apperr.Wrap(err, apperr.ErrUnauthorized, "wrong username or password")
		c.JSON(apperr.Status(authErr), apperr.Payload(authErr))
		return
	}
	if err := u.VerifyPassword(req.Password); err != nil {
		authErr := apperr.Wrap(err, apperr.ErrUnauthorized, "wrong username or password")
		c.JSON(apperr.Status(authErr), apperr.Payload(authErr))
		return
	}

	token, err := s.Auth.GenerateJWT(u.ID, u.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "internal_error"})
		return
	}
	u.Password = ""
	c.Header("Authorization", token)
	c.JSON(http.StatusOK, gin.H{"authorization": token, "user": u})
}

// GenerateSignInCode mints a fresh one-time sign-in code off the secret
// created at registration. Debug deployments hand the code back in the
// response; anything else only acknowledges, and the code travels through
// an out-of-band channel.
func (s *Service) GenerateSignInCode(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "code": "bad_request"})
		return
	}

	u, err := fields.GetUserByUsername(req.Username, s.Db)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "user not found", "code": "not_found"})
		return
	}
	code, err := totp.GenerateCode(u.OTPSecret, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "internal_error"})
		return
	}

	if s.Config.IsDebug {
		c.JSON(http.StatusOK, gin.H{"result": code})
		return
	}
	s.logger().Printf("sign-in code generated for %s", u.Username)
	c.JSON(http.StatusOK, gin.H{"message": "sign-in code generated", "code": "otp_generated"})
}

// SingleLoginHandler signs a user in with a one-time code instead of their
// password.
func (s *Service) SingleLoginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		OTP      string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "code": "bad_request"})
		return
	}

	u, err := fields.GetUserByUsername(req.Username, s.Db)
	if err != nil {
		authErr := apperr.Wrap(err, apperr.ErrUnauthorized, "wrong username or otp")
		c.JSON(apperr.Status(authErr), apperr.Payload(authErr))
		return
	}
	if !totp.Validate(req.OTP, u.OTPSecret) {
		authErr := apperr.New(apperr.ErrUnauthorized.Code, http.StatusUnauthorized, "wrong username or otp")
		c.JSON(apperr.Status(authErr), apperr.Payload(authErr))
		return
	}

	token, err := s.Auth.GenerateJWT(u.ID, u.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "internal_error"})
		return
	}
	u.Password = ""
	c.Header("Authorization", token)
	c.JSON(http.StatusOK, gin.H{"authorization": token, "user": u})
}

// GenerateAPIKey mints an api key for machine clients and stores it in the
// redis key set the gateway middleware checks against.
func (s *Service) GenerateAPIKey(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "code": "bad_request"})
		return
	}

	key, err := gateway.GenerateAPIKey()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "internal_error"})
		return
	}
	if s.Redis != nil {
		if err := s.Redis.SAdd("apikeys", key).Err(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "internal_error"})
			return
		}
	}
	s.logger().Printf("api key minted for %s", req.Email)
	c.JSON(http.StatusOK, gin.H{"result": key})
}
