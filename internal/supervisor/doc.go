// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package supervisor provides process supervision for Marquee using suture v4.

Long-running services are grouped into three layers so a failure in one does
not restart the others:

	RootSupervisor ("marquee")
	├── DataSupervisor ("data-layer")
	│   └── CapabilityRefreshService (if discovery.mood_refresh_interval > 0)
	├── MessagingSupervisor ("messaging-layer")
	│   └── FeedbackService (if events.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services restart with suture's backoff. Supervisor events are logged
through sutureslog, which writes to zerolog via logging.NewSlogLogger.

# Usage Example

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

See the services subpackage for the service wrappers.
*/
package supervisor
