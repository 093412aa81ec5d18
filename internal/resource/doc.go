// Package resource governs the shared limits of a sampling server.
//
//   - Records: a fail-fast budget on records held by live pipelines
//   - Builds: a semaphore bounding concurrent linearize/subdivide work
//   - Samples: a token bucket on chunk requests
//
// All methods are safe for concurrent use, and all methods handle a nil
// Controller as "no limits".
//
//	rc := resource.NewController(resource.Config{
//	    MaxResidentRecords:  10_000_000,
//	    MaxConcurrentBuilds: 2,
//	})
//
//	if err := rc.AcquireBuild(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseBuild()
package resource
