// Package effects is a small effect system for Go built on goroutines, channels and context.
//
// Side effects such as logging, configuration lookup, spawning goroutines or mutating a
// shared sheet are delegated to handlers. A handler is registered in a context under an
// effect enum and lives until the teardown returned on registration is called.
// Business logic only performs effects against whatever handler its context carries.
//
// Two handler shapes exist:
//   - Resumable handlers send one result back to the performer.
//   - Fire-and-forget handlers return nothing.
//
// Handlers with a single worker process payloads strictly one at a time. Partitioned handlers
// spread payloads over several workers by PartitionKey() and keep per-key order.
//
// The built-in effects live in sub-packages: log, binding, concurrency, stream and sheet.
//
// Example:
//
//	ctx, endOfLog := log.WithZapEffectHandler(ctx, 16, zap.NewExample())
//	defer endOfLog()
//
//	ctx, endOfSheet, err := sheet.WithEffectHandler(ctx, sheet.Config{}, tables, exprs)
//	if err != nil {
//	    return err
//	}
//	defer endOfSheet()
//
//	err = sheet.EffectSetCell(ctx, "t1", 1, 0, 4)
package effects
