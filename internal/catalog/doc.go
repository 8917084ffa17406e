// Package catalog holds the named targets that manifests, scenarios and the
// CLI can put contracts on: plain functions with parameter schemas, and
// types whose instances are reached through an invariant-guarded proxy.
package catalog
