//go:build covenant_disabled

package contract

const enabledByDefault = false
