package handler

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// ErrNilDepsFatalLogMsg is used if the app, the config or the backends are nil.
	ErrNilDepsFatalLogMsg = "app, cfg or backend is nil"
)
