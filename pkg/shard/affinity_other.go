//go:build !linux

package shard

import "errors"

// setAffinity is a stub for platforms where CPU pinning is not supported.
func setAffinity(cpu int) error {
	return errors.New("shard: cpu affinity not supported on this platform")
}
