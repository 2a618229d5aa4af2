package middleware

import (
	"io"
	"os"
	"testing"

	"todo-web/internal/logging"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logging.Logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func okHandler(c *gin.Context) {
	c.String(200, "ok")
}
