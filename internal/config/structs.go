package config

import (
	"time"

	"github.com/mealdesk/mealdesk-web/internal/logger"
)

// Storage drivers for the session store.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	Title     string
	Log       logger.Log
	Webserver Webserver
	Session   Session
	Backend   Backend
	Guard     Guard
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic   bool   // enable static file browsing (for development purposes only)
	DisableRecover bool   // disable recover middleware
	Domain         string // domain name for the webserver
	Port           int    `validate:"gte=0,lte=65535"` // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown in seconds
	URL            string // base url for the webserver
	CheckAliveURI  string // health check path
}

// Session settings of the browser session store.
type Session struct {
	CookieName string        // name of the browser session cookie
	ExpiryTime time.Duration // lifetime of a stored identity
	Storage    Storage
}

// Storage selects and configures the session storage driver.
type Storage struct {
	Driver string `validate:"omitempty,oneof=sqlite mysql postgres redis"`
	Table  string // session table of the sql drivers
	DB     DB
	Redis  Redis
}

// DB holds the database configuration settings.
type DB struct {
	Extras   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string // database name, file path for sqlite
}

// Redis holds the redis configuration settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Backend is the MealDesk backend API.
type Backend struct {
	URL     string        `validate:"omitempty,url"`
	Timeout time.Duration // per call timeout
}

// Guard configures the navigation guard.
type Guard struct {
	PublicRoutes    []string
	ProtectedRoutes []string
	ExemptRoutes    []string
	DefaultRedirect string        // fallback return destination after login
	LoadingWait     time.Duration // how long a navigation waits for a pending resolution
	OutcomeTTL      time.Duration // how long a settled resolution is reused
}
