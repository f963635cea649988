package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labstack/echo/v4"

	"github.com/smadinen7/Market-Intelligence-Assistant/internal/session"
)

type AppUser struct {
	UserID      int64
	Role        string
	Permissions []string
}

// App holds the process wide dependencies handlers work with. Key and S3
// are nil when JWT auth or snapshot export are not configured.
type App struct {
	Sessions       *session.Manager
	Key            keyfunc.Keyfunc
	S3             *s3.Client
	MasterAPIKey   string
	MasterUserID   int64
	MasterUserRole string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
