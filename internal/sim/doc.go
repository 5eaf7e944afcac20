// Package sim provides an in-memory allocator that exercises the allocator
// metrics aggregates the way a real allocator would: frameworks subscribe
// and leave, roles are suppressed and revived, quotas are set and removed,
// and allocation cycles rank frameworks and hand out resources.
//
// All state lives on the allocator's process; exported methods post into
// it and wait for the result.
package sim
