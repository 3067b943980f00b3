// The casestore package provides a persistent similarity index of labeled
// moderation cases, with idempotent upserts keyed by a deterministic content
// hash. An in-memory implementation serves tests and single-node deployments;
// the redis implementation adds durability and sharing across processes.
package casestore
