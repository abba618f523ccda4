// Package server exposes a store.Store over HTTP for `corkboard serve`.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"corkboard-cli/internal/model"
	"corkboard-cli/internal/store"
)

const identityKey = "identity"

// Authenticator resolves the caller from the Authorization header.
type Authenticator interface {
	FromAuthHeader(h string) (model.Identity, error)
}

// New returns an echo instance with middleware and all routes registered.
func New(st store.Store, auth Authenticator, logger *log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := logger.WithFields(log.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Debug("request")
			return nil
		},
	}))
	Register(e, st, auth, logger)
	return e
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, st store.Store, auth Authenticator, logger *log.Logger) {
	e.GET("/healthz", healthz())

	g := e.Group("/api/v1", requireAuth(auth))
	g.POST("/:table/select", selectRows(st))
	g.POST("/:table", insertRow(st, logger))
	g.PATCH("/:table", updateRows(st))
	g.DELETE("/:table", deleteRows(st))
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func requireAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			who, err := auth.FromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, store.ErrorResponse{Error: err.Error(), Code: "unauthorized"})
			}
			c.Set(identityKey, who)
			return next(c)
		}
	}
}

func caller(c echo.Context) model.Identity {
	who, _ := c.Get(identityKey).(model.Identity)
	return who
}

func table(c echo.Context) (store.Table, error) {
	return store.ParseTable(c.Param("table"))
}

// decode reads a JSON body keeping numbers as json.Number.
func decode(c echo.Context, v any) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return badRequest{err}
	}
	return nil
}

type badRequest struct{ err error }

func (e badRequest) Error() string { return "bad request: " + e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	code := store.ErrorCode(err)
	var br badRequest
	switch {
	case code == "not_found":
		status = http.StatusNotFound
	case code != "":
		status = http.StatusBadRequest
	case errors.As(err, &br):
		status = http.StatusBadRequest
		code = "bad_request"
	default:
		c.Logger().Error(err)
	}
	return c.JSON(status, store.ErrorResponse{Error: err.Error(), Code: code})
}

func selectRows(st store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		t, err := table(c)
		if err != nil {
			return fail(c, err)
		}
		var req store.SelectRequest
		if err := decode(c, &req); err != nil {
			return fail(c, err)
		}
		rows, err := st.Select(c.Request().Context(), t, req.Filter, req.Order...)
		if err != nil {
			return fail(c, err)
		}
		if rows == nil {
			rows = []store.Row{}
		}
		return c.JSON(http.StatusOK, store.SelectResponse{Rows: rows})
	}
}

func insertRow(st store.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		t, err := table(c)
		if err != nil {
			return fail(c, err)
		}
		var req store.InsertRequest
		if err := decode(c, &req); err != nil {
			return fail(c, err)
		}
		if req.Row == nil {
			return fail(c, badRequest{errors.New("missing row")})
		}
		stampOwner(t, req.Row, caller(c))
		start := time.Now()
		row, err := st.Insert(c.Request().Context(), t, req.Row)
		if err != nil {
			return fail(c, err)
		}
		logger.WithFields(log.Fields{
			"table":    string(t),
			"row_id":   row.ID(),
			"user_id":  caller(c).UserID,
			"duration": time.Since(start).String(),
		}).Debug("row inserted")
		return c.JSON(http.StatusCreated, store.InsertResponse{Row: row})
	}
}

// stampOwner fills the owner column from the token when the row omits it.
func stampOwner(t store.Table, row store.Row, who model.Identity) {
	var col string
	switch t {
	case store.Boards:
		col = "user_id"
	case store.Invites:
		col = "created_by"
	default:
		return
	}
	if store.StringValue(row[col]) == "" && who.UserID != "" {
		row[col] = who.UserID
	}
}

func updateRows(st store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		t, err := table(c)
		if err != nil {
			return fail(c, err)
		}
		var req store.UpdateRequest
		if err := decode(c, &req); err != nil {
			return fail(c, err)
		}
		if err := st.Update(c.Request().Context(), t, req.Filter, req.Patch); err != nil {
			return fail(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func deleteRows(st store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		t, err := table(c)
		if err != nil {
			return fail(c, err)
		}
		var req store.DeleteRequest
		if err := decode(c, &req); err != nil {
			return fail(c, err)
		}
		if err := st.Delete(c.Request().Context(), t, req.Filter); err != nil {
			return fail(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
