package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Envelope is the uniform body of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Respond writes a success envelope with the given status code.
func Respond(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, Envelope{Success: true, Data: data})
}

// Success returns a standard 200 response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, data)
}

// Created returns a 201 response.
func Created(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusCreated, data)
}

// Error writes a failure envelope and aborts the chain.
func Error(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, Envelope{Success: false, Error: message})
}

// Fail converts any error into the failure envelope. Upstream causes are
// logged and never echoed to the client.
func Fail(ctx *gin.Context, err error) {
	ae := AsAppError(err)
	status := ae.Kind.Status()
	if status >= http.StatusInternalServerError {
		Logger.Error("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.String("uid", ctx.GetString(ContextUIDKey)),
			zap.Error(err),
		)
	}
	Error(ctx, status, ae.Message)
}

// ContextUIDKey is where the authenticated uid is stored on the gin context.
const ContextUIDKey = "uid"
