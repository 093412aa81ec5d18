// Package session hosts named sampling pipelines for long-lived clients.
//
// A Directory maps session ids to Samplers. Every session carries its own
// lock, so concurrent requests against one session are serialized while
// different sessions proceed independently. Building a pipeline passes
// through a resource controller that bounds concurrent builds, resident
// records and the global sample rate.
//
//	dir := session.NewDirectory(source, func(o *session.Options) {
//		o.BuildTimeout = time.Minute
//	})
//	s, _ := dir.Create(ctx, "", "weather", cfg)
//	chunk, ok, _ := s.Sample(ctx, 50)
package session
