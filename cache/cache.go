/*
Package cache stores serialized aggregation results between imports.

PURPOSE:
  The six aggregations only change when a workbook is imported, so their
  rows are cached under a fixed key per aggregation and dropped as a set
  after every successful import.

IMPLEMENTATIONS:
  Redis: shared cache for several API replicas (go-redis)

  Without a configured Redis the service runs uncached.

SEE ALSO:
  - agency/service.go: reads, fills and invalidates the cache
*/
package cache
