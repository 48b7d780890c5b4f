// Package shot defines the production unit model: lifecycle statuses, the
// video sub-state, breakdown documents, asset binding, and scene grouping.
package shot
