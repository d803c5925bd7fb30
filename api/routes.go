package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes mounts the public site API and the admin-only blog panel
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Get("/health", handlers.healthHandler.health())

	r.Route("/api", func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)

		// Public endpoints
		r.Get("/blog", handlers.blogPostHandler.getPublishedBlogPosts())
		r.Get("/blog/{blogPostID}", handlers.blogPostHandler.getBlogPost())

		r.Get("/products", handlers.productHandler.getAllProducts())
		r.Get("/products/category/{category}", handlers.productHandler.getProductsByCategory())
		r.Get("/products/{productID}", handlers.productHandler.getProduct())

		r.Post("/quotes", handlers.quoteHandler.createQuote())

		r.Post("/admin/login", handlers.adminHandler.login())
		r.Get("/test/cloudinary", handlers.uploadHandler.getHostStatus())

		// Admin endpoints
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.authenticate)

			r.Get("/admin/verify", handlers.adminHandler.verify())

			r.Post("/blog", handlers.blogPostHandler.createBlogPost())
			r.Put("/blog/{blogPostID}", handlers.blogPostHandler.updateBlogPost())
			r.Delete("/blog/{blogPostID}", handlers.blogPostHandler.deleteBlogPost())

			r.Post("/upload/blog-image", handlers.uploadHandler.uploadBlogImage())
			r.Get("/upload/files", handlers.uploadHandler.getUploadedFiles())

			r.Get("/quotes", handlers.quoteHandler.getAllQuotes())
		})
	})
}
