// Package config loads the YAML configuration of the allocmetrics service.
//
// Loading runs in a fixed order: read the file, decode it (unknown fields
// are rejected), fill zero values with defaults, validate. Validation
// collects every problem rather than stopping at the first one; each is an
// *errors.ValidationError carrying the section, field and a hint.
//
// Example configuration:
//
//	metrics:
//	  namespace: mesos
//	  window: 1h
//	  scrape_timeout: 5s
//	allocator:
//	  resources: [cpus, mem, disk, gpus]
//	  queue_size: 1024
//	  symmetric_quota_removal: false
//	server:
//	  listen_address: 127.0.0.1:9464
//	logging:
//	  level: info
//	  format: json
//	simulation:
//	  allocation_schedule: "@every 1s"
//	  churn_schedule: "@every 5s"
//	  frameworks: 4
//	  roles: [eng, eng/frontend, infra]
package config
