package api

import (
	"net/http"
	"time"

	"sales-service/internal/api/handlers"
	"sales-service/internal/api/middleware"
	"sales-service/internal/catalog"
	"sales-service/internal/sales"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Services struct {
	Customers *catalog.CustomerService
	Products  *catalog.ProductService
	Sales     *sales.Service
}

func NewRouter(svc Services, tp trace.TracerProvider, logger *zap.Logger) http.Handler {
	customers := handlers.NewCustomerHandler(svc.Customers, logger)
	products := handlers.NewProductHandler(svc.Products, logger)
	salesHandler := handlers.NewSaleHandler(svc.Sales, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Tracing(tp))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", customers.GetAll)
			r.Post("/", customers.Create)
			r.Get("/name", customers.GetByName)
			r.Get("/{id}", customers.GetByID)
			r.Put("/{id}", customers.Update)
			r.Delete("/{id}", customers.Delete)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.GetAll)
			r.Post("/", products.Create)
			r.Post("/search", products.Search)
			r.Post("/exact", products.GetByExactName)
			r.Get("/{id}", products.GetByID)
			r.Put("/{id}", products.Update)
			r.Delete("/{id}", products.Delete)
			r.Get("/{id}/movements", salesHandler.ProductMovements)
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", salesHandler.GetAll)
			r.Post("/register", salesHandler.Register)
			r.Get("/date", salesHandler.GetByDate)
			r.Get("/customer/{customerID}", salesHandler.GetByCustomer)
			r.Get("/product/{productID}", salesHandler.GetByProduct)
			r.Get("/customer/{customerID}/product/{productID}", salesHandler.GetByCustomerAndProduct)
			r.Get("/{id}", salesHandler.GetByID)
			r.Delete("/{id}", salesHandler.Delete)
		})
	})

	return r
}
