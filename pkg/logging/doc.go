// Package logging provides a process-wide structured logger for heapstore.
//
// The package wraps logrus and exposes a single global logger instance that
// is initialized once and then retrieved via GetLogger. All subsystems obtain
// their logger through this package, so level, format and destination are
// controlled from a single place.
//
// # Initialisation
//
// Call Init (or InitDefault) once at program startup:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug, OutputPath: "heapstore.log"}); err != nil {
//	    log.Fatal(err)
//	}
//
// InitDefault writes INFO-level text logs to stderr.
//
// If GetLogger is called before Init, a default stderr logger is created
// lazily (via sync.Once) so that packages that log early are safe.
//
// # Context helpers
//
// Several helpers return entries pre-populated with structured fields:
//
//	log := logging.WithTx(tid)        // adds tx_id field
//	log := logging.WithPage(pid)      // adds table and page fields
//	log := logging.WithComponent("x") // adds component field
package logging
