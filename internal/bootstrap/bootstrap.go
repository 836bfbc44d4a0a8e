package bootstrap

import (
	"context"
	"fmt"
	"log"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"

	authinadapter "pathway/internal/modules/auth/adapter/in"
	authoutadapter "pathway/internal/modules/auth/adapter/out"
	authin "pathway/internal/modules/auth/port/in"
	authout "pathway/internal/modules/auth/port/out"
	authservice "pathway/internal/modules/auth/service"
	authusecase "pathway/internal/modules/auth/usecase"
	journeyinadapter "pathway/internal/modules/journey/adapter/in"
	journeyoutadapter "pathway/internal/modules/journey/adapter/out"
	journeyin "pathway/internal/modules/journey/port/in"
	journeyservice "pathway/internal/modules/journey/service"
	journeyusecase "pathway/internal/modules/journey/usecase"
	"pathway/internal/platform/clock"
	"pathway/internal/platform/config"
	"pathway/internal/platform/id"
	uiapp "pathway/internal/ui/app"
)

type App struct {
	JourneyCLI journeyinadapter.CLIHandler
	Journey    journeyin.Usecase
	Auth       authin.Usecase

	store *journeyoutadapter.SQLiteJourneyStore
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	clk := clock.SystemClock{}
	ids := id.NewULID()

	store, err := journeyoutadapter.NewSQLiteJourneyStore(cfg.DBPath, ids, clk)
	if err != nil {
		return nil, fmt.Errorf("new journey store: %w", err)
	}

	// Auth is optional at startup: without a configured backend the module
	// stays alive and answers every remote call with ErrNotConfigured.
	var provider authout.IdentityProvider
	if err := cfg.RequireAuthBackend(); err == nil {
		provider = authoutadapter.NewHTTPIdentityProvider(cfg.Auth.TokenEndpoint, cfg.Auth.APIKey, clk)
	}
	authSvc := authservice.NewAuthService(clk, cfg.PublicSiteURL, cfg.AppScheme, cfg.Auth.ResetPasswordPath)
	authUC := authusecase.NewInteractor(authSvc, authoutadapter.NewFileSessionStore(cfg.StateDir), provider, nil)

	journeyUC, err := journeyusecase.NewInteractor(
		ctx,
		journeyservice.NewJourneyService(clk, ids),
		journeyoutadapter.NewFileSnapshotStore(cfg.StateDir),
		store,
		journeyoutadapter.NewMarkdownExporter(cfg.StateDir),
		authUC,
		cfg.SaveTimeout(),
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("new journey interactor: %w", err)
	}
	authUC.AttachJourney(journeyUC)

	return &App{
		JourneyCLI: journeyinadapter.NewCLIHandler(journeyUC),
		Journey:    journeyUC,
		Auth:       authUC,
		store:      store,
	}, nil
}

func (a *App) Close() error {
	return a.store.Close()
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.Journey, app.Auth)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// RunServer exposes the auth callback endpoints. It blocks until the listener
// fails.
func RunServer(cfg config.Config, app *App) error {
	mux := http.NewServeMux()
	authinadapter.NewHTTPHandler(app.Auth).Register(mux)
	log.Printf("listening on %s", cfg.ListenAddr)
	return http.ListenAndServe(cfg.ListenAddr, mux)
}
