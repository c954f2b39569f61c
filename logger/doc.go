// Package logger provides structured logging for gatherkit evaluations
// using zerolog.
//
// Every package logs through a component logger taken from a registry
// (Get). The registry derives component loggers from one root logger and
// applies per-component level overrides from the configuration, so the
// engine can log at debug level while everything else stays at info.
// Evaluation loggers carry an eval_id and the evaluation mode so that the
// log lines of one run can be correlated.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  components:
//	    gather: "debug"
//
// # Usage
//
//	logger.Init(cfg.Logging)
//	log := logger.Get(logger.ComponentGather)
//	log.WithEvaluation(id, "parallel").Debug("split", logger.Fields("leaves", 8))
package logger
