//go:build !linux

package port

import "errors"

func openNative(Config) (Channel, error) {
	return nil, errors.New("native driver requires linux; use the portable driver")
}
