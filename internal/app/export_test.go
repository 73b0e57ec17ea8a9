package app

// SetEnviron replaces the environment source used by DumpEnv.
func (a *App) SetEnviron(environ func() []string) {
	a.environ = environ
}
