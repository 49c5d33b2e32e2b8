// Package logger provides structured logging for flowkit pipelines
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
// Field constants cover the pipeline vocabulary (pipeline, step, op,
// run_id, pool) so events stay queryable across components.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("flow")
//	log.Info("pipeline invoked", logger.Fields(logger.FieldPipeline, "wordcount"))
package logger
