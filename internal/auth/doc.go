// Package auth provides authentication and authorisation for AREA Core.
//
// It implements a 2-tier role model (user → admin) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - Short-lived JWT access tokens, signature-validated without a DB hit
//   - A per-user service token store feeding authenticated service plugins
//
// Ownership is the authorisation model for areas: a user sees and
// manages only their own, an admin sees everyone's. Service tokens are
// stored one row per (user, service); the repository doubles as the
// token lookup collaborator passed to plugins, so a plugin can read a
// caller's token but never another user's.
package auth
