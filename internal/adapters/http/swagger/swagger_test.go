package swagger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goodvibesclub/vibeoff/internal/adapters/http/swagger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSwaggerRoutes(t *testing.T) {
	Convey("Given a mux with docs routes registered", t, func() {
		mux := http.NewServeMux()
		swagger.Register(context.Background(), mux)

		Convey("When requesting the docs page", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api-docs", nil))

			Convey("Then it should serve the ReDoc shell", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(rec.Body.String(), ShouldContainSubstring, "redoc")
			})
		})

		Convey("When requesting the OpenAPI spec", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

			Convey("Then it should serve the embedded document", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "yaml")
				So(rec.Body.String(), ShouldContainSubstring, "Vibe Off! API")
				So(strings.Contains(rec.Body.String(), "/duos/matchup"), ShouldBeTrue)
			})
		})
	})
}

func TestSwaggerNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		Convey("Then registration should panic", func() {
			So(func() { swagger.Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}
