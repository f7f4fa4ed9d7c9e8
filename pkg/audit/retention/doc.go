// Package retention prunes aged audit records on a cron schedule.
//
// Pruning runs in two phases: age-based (drop records older than the
// retention window) and count-based (drop oldest records beyond the
// configured maximum). Either phase can be disabled by zeroing its limit.
//
//	cfg := retention.DefaultConfig()
//	cfg.RetentionDays = 30
//	cfg.PruneSchedule = "0 3 * * *" // daily at 3 AM
//
//	pruner := retention.NewPruner(store, cfg)
//	_ = pruner.Start(ctx)
//	defer pruner.Stop()
//
// With an empty PruneSchedule the scheduler stays idle and Prune can be
// invoked manually.
package retention
