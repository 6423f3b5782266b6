package menu_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	menuDatamodel "github.com/frahmantamala/pos-backoffice/internal/core/datamodel/menu"
	permissionDatamodel "github.com/frahmantamala/pos-backoffice/internal/core/datamodel/permission"
	"github.com/frahmantamala/pos-backoffice/internal/menu"
	menuPostgres "github.com/frahmantamala/pos-backoffice/internal/menu/postgres"
	"github.com/frahmantamala/pos-backoffice/internal/transport"
)

var _ = Describe("Menu Handler Integration", func() {
	var (
		db        *gorm.DB
		publisher *recordingPublisher
		router    *chi.Mux
	)

	send := func(method, url, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = bytes.NewBufferString(body)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, url, reader))
		return w
	}

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(io.Discard, nil))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&menuDatamodel.Menu{}, &permissionDatamodel.MenuPermission{})).To(Succeed())

		publisher = &recordingPublisher{}
		service := menu.NewService(menuPostgres.NewMenuRepository(db), publisher, slogger)
		handler := menu.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		router = chi.NewRouter()
		router.Get("/menus", handler.ListMenus)
		router.Post("/menus", handler.CreateMenu)
		router.Put("/menus/{code}", handler.UpdateMenu)
		router.Delete("/menus/{code}", handler.DeleteMenu)

		Expect(send(http.MethodPost, "/menus", `{"code":"SALES","name":"Sales","type":"CATEGORY","display_order":1}`).Code).
			To(Equal(http.StatusCreated))
		Expect(send(http.MethodPost, "/menus", `{"code":"SALES_ORDER","name":"Orders","path":"/sales/orders","parent_code":"SALES","type":"MENU"}`).Code).
			To(Equal(http.StatusCreated))
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("should list the tree in display order", func() {
		w := send(http.MethodGet, "/menus", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var response menu.MenusResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Menus).To(HaveLen(2))
		Expect(response.Menus[0].Code).To(Equal("SALES"))
		Expect(response.Menus[1].Code).To(Equal("SALES_ORDER"))
		Expect(response.Menus[1].Level).To(Equal(2))
		Expect(publisher.types()).To(Equal([]string{menu.EventCreated, menu.EventCreated}))
	})

	It("should reject a duplicate code with 409", func() {
		w := send(http.MethodPost, "/menus", `{"code":"SALES","name":"Again","type":"CATEGORY"}`)
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring("MENU_CODE_TAKEN"))
	})

	It("should reject an unknown node type", func() {
		w := send(http.MethodPost, "/menus", `{"code":"REPORTS","name":"Reports","type":"WIDGET"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("INVALID_MENU_TYPE"))
	})

	It("should move a node to the root and relevel it", func() {
		w := send(http.MethodPut, "/menus/SALES_ORDER", `{"parent_code":""}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		var node menu.Node
		Expect(json.NewDecoder(w.Body).Decode(&node)).To(Succeed())
		Expect(node.Level).To(Equal(1))
		Expect(node.ParentID).To(BeNil())
	})

	It("should refuse to delete a parent with active children", func() {
		Expect(send(http.MethodDelete, "/menus/SALES", "").Code).To(Equal(http.StatusConflict))
		Expect(send(http.MethodDelete, "/menus/SALES_ORDER", "").Code).To(Equal(http.StatusNoContent))
		Expect(send(http.MethodDelete, "/menus/SALES", "").Code).To(Equal(http.StatusNoContent))
		Expect(send(http.MethodDelete, "/menus/SALES", "").Code).To(Equal(http.StatusNotFound))
	})
})
