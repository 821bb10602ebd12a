package user

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"CommLink/logger"
	midsec "CommLink/middleware/security"
	usersvc "CommLink/module/user/service"
	"CommLink/service/mgo"
	"CommLink/tools/errs"
	"CommLink/tools/ids"
	jwtlib "CommLink/tools/security"
)

// JWTOpts is installed once from main before the routes are mounted.
var JWTOpts jwtlib.Options

type loginReq struct {
	UserID     string `json:"user_id" binding:"required"`
	DeviceType string `json:"device_type"`
	DeviceID   string `json:"device_id"`
}

// HandlerLogin implements POST /login: mint a messaging session for the
// given identity and hand back the signed token.
func HandlerLogin(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}

	rec, token, err := usersvc.Login(JWTOpts, usersvc.LoginParams{
		SessionID:  ids.GenerateString(),
		UserID:     req.UserID,
		DeviceType: req.DeviceType,
		DeviceID:   req.DeviceID,
	})
	if err != nil {
		logger.Errorf("[user] login failed user=%s err=%v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer)
		return
	}

	if db, ok := mgo.TryGetDB(); ok {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := usersvc.SaveSession(ctx, db, rec); err != nil {
			logger.Warnf("[user] save session failed user=%s err=%v", req.UserID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"session_id": rec.SessionID,
		"expire_at":  rec.ExpireAt.UnixMilli(),
		"user": gin.H{
			"id": req.UserID,
		},
	})
}

// HandlerCheck implements POST /check: echo back who the token belongs
// to, mostly for client boot and debugging.
func HandlerCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id": midsec.CallerID(c),
		"ok":      true,
	})
}
