//go:build !unix

package arch

import "errors"

func hostMachine() (string, error) {
	return "", errors.New("uname is not available on this platform")
}
