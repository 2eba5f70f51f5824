package cli

import (
	"errors"

	"github.com/felixgeelhaar/taskboard/adapter/api"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/commands"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/queries"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/services"
)

// ErrNoServer is returned by commands that need a running server when none
// is configured.
var ErrNoServer = errors.New("no taskboard server configured, use --server or TASKBOARD_SERVER")

// App holds the CLI application dependencies. The handlers are set when the
// registry runs in this process (serve, mcp); Client reaches a registry
// running elsewhere.
type App struct {
	// Task Command Handlers
	CreateTaskHandler *commands.CreateTaskHandler
	UpdateTaskHandler *commands.UpdateTaskHandler
	DeleteTaskHandler *commands.DeleteTaskHandler

	// Task Query Handlers
	ListTasksHandler *queries.ListTasksHandler
	GetTaskHandler   *queries.GetTaskHandler
	AnalyticsHandler *queries.AnalyticsHandler

	ScoringEngine *services.ScoringEngine

	// Client talks to a remote server.
	Client *api.Client
}

// NewApp creates a new CLI application backed by in-process handlers.
func NewApp(
	createTask *commands.CreateTaskHandler,
	updateTask *commands.UpdateTaskHandler,
	deleteTask *commands.DeleteTaskHandler,
	listTasks *queries.ListTasksHandler,
	getTask *queries.GetTaskHandler,
	analytics *queries.AnalyticsHandler,
	scorer *services.ScoringEngine,
) *App {
	return &App{
		CreateTaskHandler: createTask,
		UpdateTaskHandler: updateTask,
		DeleteTaskHandler: deleteTask,
		ListTasksHandler:  listTasks,
		GetTaskHandler:    getTask,
		AnalyticsHandler:  analytics,
		ScoringEngine:     scorer,
	}
}

// NewRemoteApp creates a CLI application that talks to the server at url.
func NewRemoteApp(url string) *App {
	return &App{
		ScoringEngine: services.NewScoringEngine(),
		Client:        api.NewClient(url, nil),
	}
}

// SetClient sets the remote API client.
func (a *App) SetClient(client *api.Client) {
	a.Client = client
}

var app *App

// SetApp sets the global CLI application.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application.
func GetApp() *App {
	return app
}

// GetClient returns the client for the --server flag when given, otherwise
// the application's client.
func GetClient() (*api.Client, error) {
	if serverURL != "" {
		return api.NewClient(serverURL, nil), nil
	}
	if app == nil || app.Client == nil {
		return nil, ErrNoServer
	}
	return app.Client, nil
}

// ServerURL returns the address of the server commands talk to.
func ServerURL() (string, error) {
	client, err := GetClient()
	if err != nil {
		return "", err
	}
	return client.BaseURL(), nil
}
