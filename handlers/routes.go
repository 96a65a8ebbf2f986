package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/TARS911/dongfeng-minitraktor-sub001/metrics"
)

type RouterParams struct {
	Metrics *metrics.ServerMetrics
	Limiter RateLimiter
	// public form submissions per minute per client IP
	FormsPerMinute int
	// take the client IP from X-Forwarded-For / X-Real-IP
	TrustProxy bool
}

func NewRouter(h *Handler, p RouterParams) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	router.Use(h.AccessLogMiddleware, p.Metrics.Middleware, h.ErrorHandleMiddleware)

	limited := func(scope string, f http.HandlerFunc) http.Handler {
		return RateLimitMiddleware(p.Limiter, scope, PerMinute(p.FormsPerMinute), p.TrustProxy)(f)
	}

	api := router.PathPrefix("/api").Subrouter()
	admin := api.NewRoute().Subrouter()
	admin.Use(h.AdminMiddleware)

	api.HandleFunc("/health", h.Health).Methods("GET")
	api.HandleFunc("/auth/signin", h.Signin).Methods("POST")
	api.HandleFunc("/auth/logout", h.Logout).Methods("POST")

	api.HandleFunc("/products", h.ListProducts).Methods("GET")
	api.HandleFunc("/products/{slug}", h.GetProduct).Methods("GET")
	api.HandleFunc("/search", h.SearchProducts).Methods("GET")
	admin.HandleFunc("/products", h.CreateProduct).Methods("POST")
	admin.HandleFunc("/products/{id:[0-9]+}", h.UpdateProduct).Methods("PUT")
	admin.HandleFunc("/products/{id:[0-9]+}", h.DeleteProduct).Methods("DELETE")

	api.HandleFunc("/categories", h.GetAllCategories).Methods("GET")
	api.HandleFunc("/categories/{id:[0-9]+}", h.GetCategory).Methods("GET")
	admin.HandleFunc("/categories", h.CreateCategory).Methods("POST")
	admin.HandleFunc("/categories/{id:[0-9]+}", h.UpdateCategory).Methods("PUT")
	admin.HandleFunc("/categories/{id:[0-9]+}", h.DeleteCategory).Methods("DELETE")

	api.Handle("/orders", limited("orders", h.CreateOrder)).Methods("POST")
	api.HandleFunc("/orders/number/{number}", h.GetOrderByNumber).Methods("GET")
	admin.HandleFunc("/orders", h.SearchOrders).Methods("GET")
	admin.HandleFunc("/orders/{id:[0-9]+}", h.GetOrderById).Methods("GET")

	admin.HandleFunc("/import/products", h.ImportProductsTemplate).Methods("GET")
	admin.HandleFunc("/import/products", h.ImportProducts).Methods("POST")
	admin.HandleFunc("/import/bitrix", h.ImportBitrixInstructions).Methods("GET")
	admin.HandleFunc("/import/bitrix", h.ImportBitrix).Methods("POST")

	api.Handle("/contact", limited("contact", h.CreateContact)).Methods("POST")
	api.Handle("/delivery-calculator", limited("delivery", h.CalculateDelivery)).Methods("POST")
	admin.HandleFunc("/contacts", h.SearchContacts).Methods("GET")
	admin.HandleFunc("/delivery-requests", h.SearchDeliveryRequests).Methods("GET")

	if p.Metrics != nil {
		router.Handle("/metrics", p.Metrics.Handler()).Methods("GET")
	}
	return router
}
