package permission_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/frahmantamala/pos-backoffice/internal"
	"github.com/frahmantamala/pos-backoffice/internal/cache"
	"github.com/frahmantamala/pos-backoffice/internal/core/events"
	"github.com/frahmantamala/pos-backoffice/internal/menu"
	"github.com/frahmantamala/pos-backoffice/internal/observability"
	"github.com/frahmantamala/pos-backoffice/internal/permission"
	"github.com/frahmantamala/pos-backoffice/internal/transport"
	"github.com/frahmantamala/pos-backoffice/internal/user"
)

var _ = Describe("Permission Handler Integration", func() {
	var (
		store   *fakeGrantStore
		handler *permission.Handler
	)

	BeforeEach(func() {
		logger := discardLogger()
		store = &fakeGrantStore{}
		store.add(activeGrant("SALES_ORDER", permission.TargetRole, "CASHIER", permission.LevelWrite))

		users := newFakeUserDirectory(
			&user.User{ID: "u-1", Username: "alice", Roles: []string{"CASHIER"}, IsActive: true},
			&user.User{ID: "u-9", Username: "root", Roles: []string{"ADMIN"}, IsActive: true},
		)
		menus := &fakeMenuDirectory{nodes: []menu.Node{
			node(1, "SALES", 0, 1, 1, menu.NodeCategory),
			node(2, "SALES_ORDER", 1, 2, 1, menu.NodeMenu),
			node(3, "SALES_RETURN", 1, 2, 2, menu.NodeMenu),
		}}

		metrics := observability.NewMetrics(prometheus.NewRegistry())
		permCache := permission.NewCache(cache.NewMemoryBackend(100, time.Hour), 30*time.Minute, time.Hour, metrics, logger)
		bus := events.NewEventBus(logger)
		permission.NewInvalidator(permCache, users, logger).Register(bus)
		service := permission.NewService(store, users, menus, permCache, bus, metrics, logger)
		handler = permission.NewHandler(&transport.BaseHandler{Logger: logger}, service)
	})

	as := func(req *http.Request, username string) *http.Request {
		return req.WithContext(internal.ContextWithUsername(context.Background(), username))
	}

	It("should render the caller's menus with action flags", func() {
		req := as(httptest.NewRequest(http.MethodGet, "/api/v1/me/menus", nil), "alice")
		w := httptest.NewRecorder()

		handler.GetMyMenus(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var response permission.UserMenusResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Menus).To(HaveLen(2))
		Expect(response.Menus[0].Code).To(Equal("SALES"))
		Expect(response.Menus[0].Permission).To(Equal(permission.DisplayPermission{HasRead: true}))
		Expect(response.Menus[1].Code).To(Equal("SALES_ORDER"))
		Expect(response.Menus[1].Permission).To(Equal(permission.DisplayPermission{HasRead: true, HasWrite: true}))
	})

	It("should return 401 when no user is in the context", func() {
		w := httptest.NewRecorder()
		handler.GetMyMenus(w, httptest.NewRequest(http.MethodGet, "/api/v1/me/menus", nil))
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should render level names in the summary", func() {
		w := httptest.NewRecorder()
		handler.GetMyPermissions(w, as(httptest.NewRequest(http.MethodGet, "/api/v1/me/permissions", nil), "alice"))

		Expect(w.Code).To(Equal(http.StatusOK))
		var response permission.SummaryResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Permissions).To(Equal(map[string]string{"SALES_ORDER": "WRITE"}))
	})

	DescribeTable("point checks",
		func(query string, status int, allowed bool) {
			w := httptest.NewRecorder()
			handler.CheckMyPermission(w, as(httptest.NewRequest(http.MethodGet, "/api/v1/me/permissions/check?"+query, nil), "alice"))

			Expect(w.Code).To(Equal(status))
			if status != http.StatusOK {
				return
			}
			var response permission.CheckResponse
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.Allowed).To(Equal(allowed))
		},
		Entry("write on granted menu", "menu=SALES_ORDER&level=WRITE", http.StatusOK, true),
		Entry("level defaults to read", "menu=SALES_ORDER", http.StatusOK, true),
		Entry("delete exceeds the grant", "menu=SALES_ORDER&level=DELETE", http.StatusOK, false),
		Entry("unknown menu", "menu=NOPE&level=READ", http.StatusOK, false),
		Entry("missing menu", "level=READ", http.StatusBadRequest, false),
		Entry("bad level", "menu=SALES_ORDER&level=OWNER", http.StatusBadRequest, false),
	)

	It("should create a grant on behalf of the caller", func() {
		body, _ := json.Marshal(map[string]string{
			"menu_code": "SALES_RETURN", "target_type": "USER", "target_id": "u-1", "level": "DELETE",
		})
		w := httptest.NewRecorder()
		handler.CreateGrant(w, as(httptest.NewRequest(http.MethodPost, "/api/v1/permissions/grants", bytes.NewReader(body)), "root"))

		Expect(w.Code).To(Equal(http.StatusCreated))
		var response permission.GrantResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.GrantedBy).To(Equal("root"))
		Expect(response.Level).To(Equal("DELETE"))
		Expect(response.TargetType).To(Equal(permission.TargetUser))

		w = httptest.NewRecorder()
		handler.CheckMyPermission(w, as(httptest.NewRequest(http.MethodGet, "/api/v1/me/permissions/check?menu=SALES_RETURN&level=DELETE", nil), "alice"))
		Expect(w.Body.String()).To(ContainSubstring(`"allowed":true`))
	})

	It("should reject grants on categories", func() {
		body, _ := json.Marshal(map[string]string{
			"menu_code": "SALES", "target_type": "ROLE", "target_id": "CASHIER", "level": "READ",
		})
		w := httptest.NewRecorder()
		handler.CreateGrant(w, as(httptest.NewRequest(http.MethodPost, "/api/v1/permissions/grants", bytes.NewReader(body)), "root"))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("CATEGORY_NOT_GRANTABLE"))
	})

	It("should reject unknown body fields", func() {
		w := httptest.NewRecorder()
		handler.CreateGrant(w, as(httptest.NewRequest(http.MethodPost, "/api/v1/permissions/grants",
			bytes.NewBufferString(`{"menu_code":"SALES_ORDER","bypass":true}`)), "root"))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should revoke and then report the grant as missing", func() {
		url := "/api/v1/permissions/grants?menu_code=SALES_ORDER&target_type=ROLE&target_id=CASHIER"

		w := httptest.NewRecorder()
		handler.RevokeGrant(w, as(httptest.NewRequest(http.MethodDelete, url, nil), "root"))
		Expect(w.Code).To(Equal(http.StatusNoContent))

		w = httptest.NewRecorder()
		handler.RevokeGrant(w, as(httptest.NewRequest(http.MethodDelete, url, nil), "root"))
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("should list grants for a target and all active grants", func() {
		w := httptest.NewRecorder()
		handler.ListGrants(w, httptest.NewRequest(http.MethodGet, "/api/v1/permissions/grants?target_type=ROLE&target_id=CASHIER", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		var response permission.GrantsResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Grants).To(HaveLen(1))

		w = httptest.NewRecorder()
		handler.ListGrants(w, httptest.NewRequest(http.MethodGet, "/api/v1/permissions/grants", nil))
		Expect(w.Code).To(Equal(http.StatusOK))

		w = httptest.NewRecorder()
		handler.ListGrants(w, httptest.NewRequest(http.MethodGet, "/api/v1/permissions/grants?target_type=TEAM", nil))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	DescribeTable("cache refresh scopes",
		func(body string, status int) {
			w := httptest.NewRecorder()
			handler.RefreshCache(w, as(httptest.NewRequest(http.MethodPost, "/api/v1/permissions/cache/refresh", bytes.NewBufferString(body)), "root"))
			Expect(w.Code).To(Equal(status))
		},
		Entry("user", `{"scope":"user","username":"alice"}`, http.StatusOK),
		Entry("user without name", `{"scope":"user"}`, http.StatusBadRequest),
		Entry("all", `{"scope":"all"}`, http.StatusOK),
		Entry("menu", `{"scope":"menu","menu_code":"SALES_ORDER"}`, http.StatusOK),
		Entry("unknown", `{"scope":"everything"}`, http.StatusBadRequest),
	)
})
