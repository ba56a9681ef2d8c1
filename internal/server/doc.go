// Package server provides HTTP server management for the dugong site.
//
// Architecture:
//   - RouteProvider: the site and the static file server contribute routes
//   - Manager: combines RouteProviders into a single HTTP server
package server

// Usage:
//
//   mgr := server.NewManager(server.ServerConfigFrom(cfg), logger)
//   mgr.SetHTMLRender(renderer)
//
//   // Route table filtered by the enabled features
//   mgr.AddProvider(server.NewSiteProvider(handlers, features, limiter, logger))
//
//   // Public files, the compiled stylesheet is gated on the build
//   mgr.AddProvider(server.NewStaticProvider(staticServer))
//
//   // Binds synchronously, bind errors are returned here
//   if err := mgr.Start(ctx); err != nil { ... }
