// Package api implements the HTTP REST API and WebSocket server for AREA Core.
//
// This package provides:
//   - REST endpoints for area CRUD, the service catalogue, and trigger processing
//   - WebSocket hub for real-time area.fired / reaction.executed broadcasts
//   - JWT authentication with ticket-based WebSocket auth
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// The API server sits between clients (web UI, mobile apps) and the rule
// engine. Mutations to areas keep the scheduler's job table in sync: enabling
// an area ensures its trigger has a cron job, and removing the last enabled
// binding of a trigger retires the job.
//
// # Security
//
// Authentication uses short-lived JWT access tokens validated per request.
// WebSocket connections use single-use tickets to keep tokens out of URLs.
// Authorisation is ownership-based: users operate on their own areas; admins
// additionally manage user accounts and may trigger processing directly.
package api
