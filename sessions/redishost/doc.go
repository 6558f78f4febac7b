// Package redishost provides a Redis-backed sessions.Store for deployments
// that run more than one HTTP instance behind a load balancer. Records are
// stored as JSON values with a TTL; expiry is delegated to Redis.
package redishost
