package handler

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// ErrNilDepsFatalLogMsg is used if app or deps var pointer is nil.
	ErrNilDepsFatalLogMsg = "app or deps is nil"
)
