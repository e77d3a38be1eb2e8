package controllers

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/mediadesk/middleware"
	"github.com/cppla/mediadesk/models"
	"github.com/cppla/mediadesk/storage"
	"github.com/cppla/mediadesk/utils"
)

// payload is a decoded JSON object whose fields are type-checked one by one,
// so a wrong type and a missing field can be told apart.
type payload map[string]json.RawMessage

// bindPayload decodes the request body into a payload. It writes a 400 and
// returns false when the body is not a JSON object.
func bindPayload(ctx *gin.Context) (payload, bool) {
	var p payload
	if err := ctx.ShouldBindJSON(&p); err != nil || p == nil {
		utils.Error(ctx, 400, "Invalid request body")
		return nil, false
	}
	return p, true
}

func (p payload) has(key string) bool {
	raw, ok := p[key]
	return ok && !bytes.Equal(raw, []byte("null"))
}

// str returns the field as a string. ok is false when it is absent or not a string.
func (p payload) str(key string) (string, bool) {
	if !p.has(key) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(p[key], &s); err != nil {
		return "", false
	}
	return s, true
}

// nonEmpty returns the field when it is a non-empty string.
func (p payload) nonEmpty(key string) (string, bool) {
	s, ok := p.str(key)
	return s, ok && s != ""
}

func (p payload) number(key string) (float64, bool) {
	if !p.has(key) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(p[key], &f); err != nil {
		return 0, false
	}
	return f, true
}

func (p payload) boolean(key string) (bool, bool) {
	if !p.has(key) {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(p[key], &b); err != nil {
		return false, false
	}
	return b, true
}

// isTrue reports whether the field is exactly the JSON literal true.
func (p payload) isTrue(key string) bool {
	b, ok := p.boolean(key)
	return ok && b
}

func (p payload) object(key string) (payload, bool) {
	if !p.has(key) {
		return nil, false
	}
	var obj payload
	if err := json.Unmarshal(p[key], &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// mustUser returns the roster entry set by middleware.Authenticate.
func mustUser(ctx *gin.Context) *models.User {
	u, ok := middleware.CurrentUser(ctx)
	if !ok {
		panic("controllers: handler mounted without middleware.Authenticate")
	}
	return u
}

// clampLimit parses a limit query value, falling back to def and bounding to [1, upper].
func clampLimit(raw string, def, upper int) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		n = def
	}
	return min(max(n, 1), upper)
}

// invalidFolder turns a SanitizeFolderPath failure into a client error.
func invalidFolder(err error) error {
	msg := strings.TrimPrefix(err.Error(), storage.ErrInvalidPath.Error()+": ")
	return utils.InvalidInput(msg)
}
