// Package server exposes sampling sessions over HTTP.
//
// Routes mirror the progressive visualization client: a pipeline is created
// per view id, its stages are swapped in place, and chunks are pulled with
// /sample/:id until the server answers 204 No Content. Strategy names and
// parameters arrive as query parameters and are resolved against the
// dataset's column names.
//
//	srv := server.New(source, func(o *server.Options) {
//		o.Defaults = map[string]string{"buckets": "50"}
//	})
//	_ = srv.Run(ctx, ":8000")
package server
