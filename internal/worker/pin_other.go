//go:build !linux

package worker

import "errors"

func pin(int) error {
	return errors.New("thread affinity not supported on this platform")
}
