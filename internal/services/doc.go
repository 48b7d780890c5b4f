// Package services holds the shared error taxonomy and context helpers used
// by the lifecycle engine, the vault layer, and the generation client.
package services
