package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/udhos/backoffice/paging"
	"github.com/udhos/backoffice/tokencache"
	"github.com/udhos/backoffice/upstream"
)

// query parameters consumed by the gateway and not forwarded upstream
const (
	paramQuery    = "q"
	paramPage     = "page"
	paramPageSize = "pageSize"
)

type listFunc func(ctx context.Context, query url.Values) ([]upstream.Record, error)

func listHandler(list listFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		page, err := intParam(c, paramPage, 1)
		if err != nil {
			return err
		}
		size, err := intParam(c, paramPageSize, paging.DefaultPageSize)
		if err != nil {
			return err
		}

		forward := url.Values{}
		for k, v := range c.QueryParams() {
			switch k {
			case paramQuery, paramPage, paramPageSize:
				continue
			}
			forward[k] = v
		}

		records, err := list(c.Request().Context(), forward)
		if err != nil {
			return upstreamError(c, err)
		}

		filtered := paging.Filter(records, c.QueryParam(paramQuery))
		return c.JSON(http.StatusOK, paging.Paginate(filtered, page, size))
	}
}

func (g *Gateway) getCustomer(c echo.Context) error {
	r, err := g.profile.GetCustomer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func intParam(c echo.Context, name string, def int) (int, error) {
	s := c.QueryParam(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s: %q", name, s))
	}
	return v, nil
}

// upstreamError maps a failed domain call to the error shown to the UI.
// Token failures are reported as such instead of as the downstream 401 they would cause.
func upstreamError(c echo.Context, err error) error {
	log.Error().Err(err).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Str("path", c.Path()).
		Msg("upstream request failed")

	var (
		transportErr *tokencache.TransportError
		authErr      *tokencache.AuthenticationFailure
		protoErr     *tokencache.ProtocolError
		statusErr    *upstream.StatusError
	)
	switch {
	case errors.As(err, &authErr), errors.As(err, &protoErr), errors.As(err, &transportErr):
		return echo.NewHTTPError(http.StatusBadGateway, "upstream authentication failed")
	case errors.As(err, &statusErr):
		if statusErr.Status == http.StatusNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		return echo.NewHTTPError(http.StatusBadGateway,
			fmt.Sprintf("upstream service answered status %d", statusErr.Status))
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "upstream service timed out")
	}
	return echo.NewHTTPError(http.StatusBadGateway, "upstream service unavailable")
}
