package server

import (
	"compress/gzip"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/karrelday/TaraLaba/internal/entities"
	"github.com/karrelday/TaraLaba/internal/handler"
	"github.com/karrelday/TaraLaba/internal/middleware"
)

func (s *Server) setupRoutes(handler *handler.Handler, users middleware.UserLoader, tokens middleware.TokenParser) {
	s.setupMiddleware()

	auth := middleware.Auth(users, tokens)
	manageUsers := middleware.RequirePermission(entities.PermissionManageUsers)
	manageOrders := middleware.RequirePermission(entities.PermissionManageOrders)

	s.mux.Get("/", http.HandlerFunc(handler.Root))
	s.mux.Get("/db-status", http.HandlerFunc(handler.DBStatus))

	s.mux.Post("/login", http.HandlerFunc(handler.Login))
	s.mux.With(middleware.OptionalAuth(users, tokens)).Post("/addusers", http.HandlerFunc(handler.AddUser))

	s.mux.Group(func(r chi.Router) {
		r.Use(auth)

		r.With(manageUsers).Get("/fetchusers", http.HandlerFunc(handler.GetUsers))
		r.Get("/fetchusers/{userId}", http.HandlerFunc(handler.GetUser))
		r.Put("/updateuser/{id}", http.HandlerFunc(handler.UpdateUser))
		r.With(manageUsers).Delete("/deleteuser/{id}", http.HandlerFunc(handler.DeleteUser))

		r.Route("/fetchorder", func(r chi.Router) {
			r.Get("/", http.HandlerFunc(handler.GetOrders))
			r.Get("/status/{status}", http.HandlerFunc(handler.GetOrdersByStatus))
			r.Get("/customer/{customerId}", http.HandlerFunc(handler.GetOrdersByCustomer))
			r.Get("/id/{orderId}", http.HandlerFunc(handler.GetOrder))
		})

		r.Post("/addorder", http.HandlerFunc(handler.AddOrder))
		r.Put("/updateorder/{orderId}", http.HandlerFunc(handler.UpdateOrder))
		r.Put("/payorder/{orderId}", http.HandlerFunc(handler.PayOrder))
		r.With(manageOrders).Delete("/deleteorder/{orderId}", http.HandlerFunc(handler.DeleteOrder))

		r.Get("/receipt/{orderId}", http.HandlerFunc(handler.GetReceipt))

		r.Get("/notifications", http.HandlerFunc(handler.GetNotifications))
		r.Put("/notifications/{id}/read", http.HandlerFunc(handler.MarkNotificationRead))
	})
}

func (s *Server) setupMiddleware() {
	s.mux.Use(
		chiMiddleware.RequestID,
		middleware.DecompressBodyReader,
		middleware.Logger,
		chiMiddleware.Recoverer,
		chiMiddleware.Compress(gzip.BestCompression, "application/json", "text/html", "text/plain"),
	)
}
