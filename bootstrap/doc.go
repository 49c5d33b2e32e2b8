// Package bootstrap assembles a ready-to-run pipeline runtime from
// configuration.
//
// It builds the logger, sizes the worker pool, starts the optional
// subprocess pool, and wires definition loading against a shared
// operation registry, so embedding programs stand up pipelines in a
// few lines.
//
// # Quick Start
//
//	cfg, err := config.Load("flowkit.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app, err := bootstrap.NewApp(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Close()
//
//	app.RegisterOperation("split-words", splitWords())
//	p, err := app.Resolve("word-count")
//	out, err := app.Run(ctx, p, stream.FromSlice(lines))
//
// RunTask adds signal-aware cancellation for batch programs.
package bootstrap
