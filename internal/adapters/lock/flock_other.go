//go:build !unix

package lock

import (
	"os"

	"go.trai.ch/envcache/internal/core/domain"
)

func tryLock(string) (*os.File, error) {
	return nil, domain.ErrLockUnsupported
}

func unlock(f *os.File) error {
	return f.Close()
}

type guard struct{}

func lockGuard(string) (*guard, error) {
	return nil, domain.ErrLockUnsupported
}

func (g *guard) release() {}

func processAlive(int) bool {
	return true
}
